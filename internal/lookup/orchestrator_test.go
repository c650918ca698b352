package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/metrics"
	"github.com/apex-run/apex-core/internal/pattern"
	"github.com/apex-run/apex-core/internal/store"
)

func intp(n int) *int { return &n }

func newTestOrchestrator(t *testing.T, patterns ...*pattern.Pattern) (*Orchestrator, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()
	for _, p := range patterns {
		p.TrustScore = pattern.DerivedTrustScore(p.Usage)
		if err := s.Put(ctx, p); err != nil {
			t.Fatalf("seed Put: %v", err)
		}
	}
	o, err := New(ctx, s, WithMetrics(metrics.New()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o, s
}

func buttonPattern() *pattern.Pattern {
	now := time.Now()
	return &pattern.Pattern{
		ID:      "PAT:UI:BUTTON",
		Type:    pattern.KindCodebase,
		Title:   "Button component conventions",
		Summary: "How this codebase structures button components",
		Paths:   []string{"src/ui/**"},
		Usage:   pattern.Usage{Successes: 10, Failures: 0},
		Created: now,
		Updated: now,
	}
}

// scenario 1: an empty store returns an empty result, never an error.
func TestLookupEmptyStoreReturnsEmptyResult(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	resp, err := o.Lookup(context.Background(), Request{Task: "anything", K: 5})
	if err != nil {
		t.Fatalf("Lookup on empty store: %v", err)
	}
	if len(resp.Patterns) != 0 {
		t.Fatalf("expected 0 patterns, got %d", len(resp.Patterns))
	}
}

// scenario 2: a candidate path under a pattern's declared ** glob is
// found, scores at least 0.5, and ranks first.
func TestLookupExactPathHitRanksFirst(t *testing.T) {
	o, _ := newTestOrchestrator(t, buttonPattern())

	resp, err := o.Lookup(context.Background(), Request{
		Task:  "button component",
		Paths: []string{"src/ui/Button.tsx"},
		K:     5,
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) == 0 {
		t.Fatal("expected at least one match")
	}
	top := resp.Patterns[0]
	if top.Pattern.ID != "PAT:UI:BUTTON" {
		t.Fatalf("expected PAT:UI:BUTTON first, got %s", top.Pattern.ID)
	}
	if top.Score < 0.5 {
		t.Fatalf("expected top score >= 0.5, got %v", top.Score)
	}
}

// scenario 3: a candidate path sharing no token prefix with any
// declared pattern path is rejected by the bloom prefilter before the
// trie is ever consulted, and that rejection is observable via a
// counter.
func TestLookupBloomRejectsUnrelatedPath(t *testing.T) {
	o, _ := newTestOrchestrator(t, buttonPattern())

	resp, err := o.Lookup(context.Background(), Request{
		Task:  "docs",
		Paths: []string{"docs/readme.md"},
		K:     5,
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) != 0 {
		t.Fatalf("expected 0 patterns for unrelated path, got %d", len(resp.Patterns))
	}
	if o.BloomRejections() == 0 {
		t.Fatal("expected at least one bloom rejection")
	}
	if o.TrieConsults() != 0 {
		t.Fatalf("expected trie not consulted, got %d consults", o.TrieConsults())
	}
}

// scenario 4: two patterns tied on path/text/trust are separated by a
// prior_success signal boost.
func TestLookupSignalBoostBreaksTie(t *testing.T) {
	now := time.Now()
	a := &pattern.Pattern{
		ID: "PAT:UI:ALPHA", Type: pattern.KindCodebase, Title: "alpha widget",
		Paths: []string{"src/ui/**"}, Usage: pattern.Usage{Successes: 10, Failures: 0},
		Created: now, Updated: now,
	}
	b := &pattern.Pattern{
		ID: "PAT:UI:BETA", Type: pattern.KindCodebase, Title: "alpha widget",
		Paths: []string{"src/ui/**"}, Usage: pattern.Usage{Successes: 10, Failures: 0},
		Created: now, Updated: now,
	}
	o, _ := newTestOrchestrator(t, a, b)

	resp, err := o.Lookup(context.Background(), Request{
		Task:    "alpha widget",
		Paths:   []string{"src/ui/Widget.tsx"},
		Signals: Signals{PriorSuccess: []string{"PAT:UI:BETA"}},
		K:       5,
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) < 2 {
		t.Fatalf("expected both patterns returned, got %d", len(resp.Patterns))
	}
	if resp.Patterns[0].Pattern.ID != "PAT:UI:BETA" {
		t.Fatalf("expected signal-boosted PAT:UI:BETA first, got %s", resp.Patterns[0].Pattern.ID)
	}
}

// scenario 5: a deprecated pattern with a higher raw component score is
// still outranked by a fresh pattern once the 0.25 damping multiplier
// applies.
func TestLookupDeprecatedDampingFlipsOrder(t *testing.T) {
	now := time.Now()
	deprecated := &pattern.Pattern{
		ID: "PAT:UI:OLD", Type: pattern.KindCodebase, Title: "button component conventions",
		Summary: "legacy", Paths: []string{"src/ui/**"},
		Usage: pattern.Usage{Successes: 40, Failures: 0}, Deprecated: true,
		Created: now, Updated: now,
	}
	fresh := &pattern.Pattern{
		ID: "PAT:UI:NEW", Type: pattern.KindCodebase, Title: "button component conventions",
		Summary: "current", Paths: []string{"src/ui/**"},
		Usage: pattern.Usage{Successes: 3, Failures: 0},
		Created: now, Updated: now,
	}
	o, _ := newTestOrchestrator(t, deprecated, fresh)

	resp, err := o.Lookup(context.Background(), Request{
		Task:  "button component conventions",
		Paths: []string{"src/ui/Button.tsx"},
		K:     5,
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) < 2 {
		t.Fatalf("expected both patterns returned, got %d", len(resp.Patterns))
	}
	if resp.Patterns[0].Pattern.ID != "PAT:UI:NEW" {
		t.Fatalf("expected non-deprecated PAT:UI:NEW first, got %s", resp.Patterns[0].Pattern.ID)
	}
}

// scenario 6: an already-elapsed deadline (deadline_ms=0) with
// partial_ok=false surfaces a TimeoutError and records no latency.
func TestLookupZeroDeadlineWithoutPartialReturnsTimeout(t *testing.T) {
	rec := metrics.New()
	o, _ := newTestOrchestrator(t, buttonPattern())
	o.metrics = rec

	_, err := o.Lookup(context.Background(), Request{
		Task:       "button",
		Paths:      []string{"src/ui/Button.tsx"},
		K:          5,
		PartialOK:  false,
		DeadlineMs: intp(0),
	})
	if err == nil {
		t.Fatal("expected an error for an already-elapsed deadline")
	}
	if _, ok := err.(*apexerr.TimeoutError); !ok {
		t.Fatalf("expected *apexerr.TimeoutError, got %T (%v)", err, err)
	}
	snap := rec.Snapshot()
	if snap.RequestsTotal != 0 {
		t.Fatalf("expected no latency recorded for a timed-out request, got requests_total=%d", snap.RequestsTotal)
	}
	if snap.Errors[string(apexerr.KindTimeout)] == 0 {
		t.Fatal("expected the timeout to be tallied in the error taxonomy")
	}
}

// a nil deadline imposes no timeout at all, distinct from deadline_ms=0.
func TestLookupNilDeadlineRunsNormally(t *testing.T) {
	o, _ := newTestOrchestrator(t, buttonPattern())
	resp, err := o.Lookup(context.Background(), Request{
		Task:  "button",
		Paths: []string{"src/ui/Button.tsx"},
		K:     5,
	})
	if err != nil {
		t.Fatalf("Lookup with nil deadline: %v", err)
	}
	if len(resp.Patterns) == 0 {
		t.Fatal("expected a match with no deadline pressure")
	}
}

func TestLookupRejectsOutOfRangeK(t *testing.T) {
	o, _ := newTestOrchestrator(t, buttonPattern())
	if _, err := o.Lookup(context.Background(), Request{Task: "x", K: 0}); err == nil {
		t.Fatal("expected BadRequestError for k=0")
	} else if _, ok := err.(*apexerr.BadRequestError); !ok {
		t.Fatalf("expected *apexerr.BadRequestError, got %T", err)
	}
}

func TestLookupExcludeListDropsPattern(t *testing.T) {
	o, _ := newTestOrchestrator(t, buttonPattern())
	resp, err := o.Lookup(context.Background(), Request{
		Task:    "button",
		Paths:   []string{"src/ui/Button.tsx"},
		K:       5,
		Exclude: []string{"PAT:UI:BUTTON"},
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) != 0 {
		t.Fatalf("expected excluded pattern to be dropped, got %d results", len(resp.Patterns))
	}
}

func TestLookupMinTrustFiltersLowTrustPattern(t *testing.T) {
	now := time.Now()
	weak := &pattern.Pattern{
		ID: "PAT:UI:WEAK", Type: pattern.KindCodebase, Title: "button component",
		Paths: []string{"src/ui/**"}, Usage: pattern.Usage{Successes: 1, Failures: 5},
		Created: now, Updated: now,
	}
	o, _ := newTestOrchestrator(t, weak)
	resp, err := o.Lookup(context.Background(), Request{
		Task:     "button",
		Paths:    []string{"src/ui/Button.tsx"},
		K:        5,
		MinTrust: 0.5,
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(resp.Patterns) != 0 {
		t.Fatalf("expected low-trust pattern filtered out, got %d results", len(resp.Patterns))
	}
}

// Concurrent lookups racing a Reindex must each observe either the
// pre- or post-write snapshot in full, never a mix: every returned
// pattern set is consistent with exactly one generation.
func TestLookupConcurrentWithReindexNeverBlendsSnapshots(t *testing.T) {
	o, s := newTestOrchestrator(t, buttonPattern())
	ctx := context.Background()

	second := buttonPattern()
	second.ID = "PAT:UI:BUTTON2"

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Put(ctx, second); err != nil {
			t.Errorf("Put: %v", err)
			return
		}
		if err := o.Reindex(ctx); err != nil {
			t.Errorf("Reindex: %v", err)
		}
	}()

	for i := 0; i < 200; i++ {
		resp, err := o.Lookup(ctx, Request{
			Task:  "button",
			Paths: []string{"src/ui/Button.tsx"},
			K:     5,
		})
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		switch len(resp.Patterns) {
		case 1, 2:
		default:
			t.Fatalf("expected 1 (pre-write) or 2 (post-write) patterns, got %d", len(resp.Patterns))
		}
	}
	<-done
}
