package lookup

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/metrics"
	"github.com/apex-run/apex-core/internal/pattern"
	"github.com/apex-run/apex-core/internal/rank"
	"github.com/apex-run/apex-core/internal/store"
	"github.com/apex-run/apex-core/internal/trie"
	"github.com/apex-run/apex-core/internal/worker"
)

const scoringBatchSize = 64

// maxCandidatePaths, maxTaskBytes, and the K bounds mirror §4.F's
// request validation limits. They are fixed here and are the only
// request limits the orchestrator enforces; config.Config's MaxK,
// MaxCandidatePaths and MaxTaskBytes are not read by this package.
const (
	maxCandidatePaths = 32
	maxTaskBytes      = 8 * 1024
	minK              = 1
	maxK              = 100
)

// Signals mirrors rank.Signals at the request boundary.
type Signals = rank.Signals

// Request is the decoded form of the wire-level lookup request in §6.
type Request struct {
	Task       string
	Paths      []string
	Type       pattern.Kind
	Tags       []string
	MinTrust   float64
	Signals    Signals
	Exclude    []string
	K          int
	PartialOK  bool
	// DeadlineMs is nil when the caller supplied no deadline at all. A
	// non-nil *0 is a real, already-elapsed deadline (§8 scenario 6),
	// distinct from "no deadline" despite both being the int zero value.
	DeadlineMs *int
}

// Result is one ranked pattern in a Response.
type Result struct {
	Pattern pattern.Pattern
	Score   float64
}

// Response is the decoded form of the wire-level lookup response in §6.
type Response struct {
	Patterns   []Result
	LatencyMs  float64
	Truncated  bool
}

// validate enforces §4.F's request limits, returning a *apexerr.BadRequestError on violation.
func (r Request) validate() error {
	if r.K < minK || r.K > maxK {
		return &apexerr.BadRequestError{Message: fmt.Sprintf("k=%d out of range [%d,%d]", r.K, minK, maxK)}
	}
	if len(r.Paths) > maxCandidatePaths {
		return &apexerr.BadRequestError{Message: fmt.Sprintf("%d candidate paths exceeds max %d", len(r.Paths), maxCandidatePaths)}
	}
	if len(r.Task) > maxTaskBytes {
		return &apexerr.BadRequestError{Message: fmt.Sprintf("task length %d exceeds max %d bytes", len(r.Task), maxTaskBytes)}
	}
	if r.MinTrust < 0 || r.MinTrust > 1 {
		return &apexerr.BadRequestError{Message: fmt.Sprintf("min_trust %v out of [0,1]", r.MinTrust)}
	}
	return nil
}

// Orchestrator is the lookup pipeline entrypoint: it owns the
// readers-writer index, the backing store, the per-fingerprint
// memoization layer, and the metrics/logging wiring around a query.
type Orchestrator struct {
	holder  *indexHolder
	store   store.Store
	weights rank.Weights
	logger  *zap.Logger
	metrics *metrics.Recorder
	group   singleflight.Group
	pool    *worker.Pool[rank.Scored]

	bloomRejections uint64
	trieConsults    uint64
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithWeights overrides the default ranking weights.
func WithWeights(w rank.Weights) Option {
	return func(o *Orchestrator) { o.weights = w }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics overrides the default global metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New builds an Orchestrator over every pattern currently in s that
// passes pattern.ValidateLoaded; patterns that fail it are left out.
func New(ctx context.Context, s store.Store, opts ...Option) (*Orchestrator, error) {
	patterns, err := s.All(ctx)
	if err != nil {
		return nil, &apexerr.StoreError{Op: "load", Err: err}
	}

	loaded := make([]*pattern.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if err := pattern.ValidateLoaded(p); err != nil {
			continue
		}
		loaded = append(loaded, p)
	}

	o := &Orchestrator{
		holder:  newIndexHolder(loaded),
		store:   s,
		weights: rank.DefaultWeights(),
		logger:  zap.NewNop(),
		metrics: metrics.Global(),
		pool:    worker.NewPool[rank.Scored](0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Reindex rebuilds the retrieval structures from the store's current
// contents and atomically swaps them in. This is the sole writer path;
// concurrent Lookup calls either see the pre- or post-swap index.
func (o *Orchestrator) Reindex(ctx context.Context) error {
	patterns, err := o.store.All(ctx)
	if err != nil {
		return &apexerr.StoreError{Op: "reindex", Err: err}
	}
	loaded := make([]*pattern.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if err := pattern.ValidateLoaded(p); err != nil {
			o.metrics.RecordError(string(apexerr.KindInvariant))
			continue
		}
		loaded = append(loaded, p)
	}
	o.holder.replace(loaded)
	return nil
}

// Lookup runs one request end to end per §4.F.
func (o *Orchestrator) Lookup(ctx context.Context, req Request) (Response, error) {
	requestID := uuid.NewString()
	log := o.logger.With(zap.String("request_id", requestID))

	if err := req.validate(); err != nil {
		o.metrics.RecordError(string(apexerr.KindBadRequest))
		log.Warn("lookup rejected", zap.Error(err))
		return Response{}, err
	}

	if req.DeadlineMs != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*req.DeadlineMs)*time.Millisecond)
		defer cancel()
	}

	if len(req.Signals.PriorSuccess) > 0 || len(req.Signals.Related) > 0 {
		o.metrics.RecordSignalsProvided()
	}

	start := time.Now()
	snap := o.holder.snapshot()

	fingerprint := fmt.Sprintf("%d|%s", snap.generation, fingerprintFor(req))
	v, err, shared := o.group.Do(fingerprint, func() (any, error) {
		return o.runQuery(ctx, snap, req, log)
	})
	if shared {
		o.metrics.RecordCacheHit()
	} else {
		o.metrics.RecordCacheMiss()
	}
	if err != nil {
		o.metrics.RecordError(string(apexerr.KindOf(err)))
		return Response{}, err
	}

	resp := v.(Response)
	resp.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
	o.metrics.RecordRequest(resp.LatencyMs, len(resp.Patterns))
	log.Debug("lookup completed", zap.Int("returned", len(resp.Patterns)), zap.Float64("latency_ms", resp.LatencyMs))
	return resp, nil
}

func (o *Orchestrator) runQuery(ctx context.Context, snap *index, req Request, log *zap.Logger) (Response, error) {
	top := rank.NewTopK(req.K)

	select {
	case <-ctx.Done():
		if req.PartialOK {
			return o.emit(snap, top, true), nil
		}
		return Response{}, timeoutOrCancelled(ctx)
	default:
	}

	candidates := o.candidateUnion(snap, req)

	select {
	case <-ctx.Done():
		if req.PartialOK {
			return o.emit(snap, top, true), nil
		}
		return Response{}, timeoutOrCancelled(ctx)
	default:
	}

	matcher := trie.GlobMatcher{}
	rankReq := rank.Request{
		Task:    req.Task,
		Paths:   req.Paths,
		Signals: req.Signals,
	}

	for batchStart := 0; batchStart < len(candidates); batchStart += scoringBatchSize {
		select {
		case <-ctx.Done():
			if req.PartialOK {
				return o.emit(snap, top, true), nil
			}
			return Response{}, timeoutOrCancelled(ctx)
		default:
		}

		end := batchStart + scoringBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[batchStart:end]

		results := o.pool.Process(batch, func(id string) (rank.Scored, error) {
			p := snap.patterns[id]
			score := rank.Score(rankReq, p, matcher, o.weights)
			return rank.Scored{ID: id, Score: score}, nil
		})
		for _, r := range results {
			top.PushIfTopK(r.Value)
		}
	}

	select {
	case <-ctx.Done():
		if req.PartialOK {
			return o.emit(snap, top, true), nil
		}
		return Response{}, timeoutOrCancelled(ctx)
	default:
	}

	return o.emit(snap, top, false), nil
}

func (o *Orchestrator) emit(snap *index, top *rank.TopK, truncated bool) Response {
	scored := top.ToSortedDesc()
	out := make([]Result, 0, len(scored))
	for _, s := range scored {
		p := snap.patterns[s.ID]
		out = append(out, Result{Pattern: *p, Score: s.Score})
	}
	return Response{Patterns: out, Truncated: truncated}
}

func timeoutOrCancelled(ctx context.Context) error {
	if ctx.Err() == context.Canceled {
		return &apexerr.CancelledError{}
	}
	return &apexerr.TimeoutError{Elapsed: "deadline exceeded"}
}

// candidateUnion implements §4.F step 2: bloom-gated trie lookups
// across every request path, unioned, then intersected with scalar
// filters and the exclude list.
func (o *Orchestrator) candidateUnion(snap *index, req Request) []string {
	ids := make(map[string]bool)

	if len(req.Paths) == 0 {
		if req.Type != "" {
			for id := range snap.byType[req.Type] {
				ids[id] = true
			}
		} else {
			for id := range snap.patterns {
				ids[id] = true
			}
		}
	} else {
		for _, path := range req.Paths {
			if !snap.bloom.MightMatch(path) {
				atomic.AddUint64(&o.bloomRejections, 1)
				continue
			}
			atomic.AddUint64(&o.trieConsults, 1)
			for _, id := range snap.trie.FindCandidates(path) {
				if req.Type == "" || snap.patterns[id].Type == req.Type {
					ids[id] = true
				}
			}
		}
	}

	exclude := make(map[string]bool, len(req.Exclude))
	for _, id := range req.Exclude {
		exclude[id] = true
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		if exclude[id] {
			continue
		}
		p := snap.patterns[id]
		if p.TrustScore < req.MinTrust {
			continue
		}
		if len(req.Tags) > 0 && !hasAnyTag(p, req.Tags) {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func hasAnyTag(p *pattern.Pattern, tags []string) bool {
	set := p.TagSet()
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}

// BloomRejections reports how many candidate paths were rejected by
// the prefilter without ever reaching the trie, the counter scenario 3
// in §8 calls for ("trie is not consulted... observable via a
// counter").
func (o *Orchestrator) BloomRejections() uint64 { return atomic.LoadUint64(&o.bloomRejections) }

// TrieConsults reports how many candidate paths reached the trie.
func (o *Orchestrator) TrieConsults() uint64 { return atomic.LoadUint64(&o.trieConsults) }

// fingerprintFor derives the memoization key from every request field
// that can change the result: the glossary's (task text, candidate
// paths, signals) triple plus the type, tag, trust, exclude, K,
// partial-result and deadline settings.
func fingerprintFor(req Request) string {
	deadline := "none"
	if req.DeadlineMs != nil {
		deadline = fmt.Sprint(*req.DeadlineMs)
	}
	return fmt.Sprintf("%s|%v|%v|%v|%v|%v|%d|%v|%v|%s", req.Task, req.Paths, req.Type, req.Tags, req.Signals, req.Exclude, req.K, req.MinTrust, req.PartialOK, deadline)
}
