package rank

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apex-run/apex-core/internal/pattern"
)

// Weights controls how the four component scores combine into a
// composite in [0, 1]. They are sourced from configuration (see
// internal/config) rather than hard-coded, per the open question in
// the design notes about not guessing calibration constants.
type Weights struct {
	Path   float64
	Text   float64
	Signal float64
	Trust  float64
}

// DefaultWeights mirrors the uncalibrated defaults: 0.35/0.25/0.20/0.20.
func DefaultWeights() Weights {
	return Weights{Path: 0.35, Text: 0.25, Signal: 0.20, Trust: 0.20}
}

const weightSumTolerance = 1e-6

// Validate reports whether the four weights sum to 1 within tolerance.
func (w Weights) Validate() error {
	sum := w.Path + w.Text + w.Signal + w.Trust
	if diff := sum - 1.0; diff < -weightSumTolerance || diff > weightSumTolerance {
		return fmt.Errorf("rank: weights sum to %v, want 1 (±%v)", sum, weightSumTolerance)
	}
	return nil
}

// Signals carries the request-side boosts used by signal_score.
type Signals struct {
	PriorSuccess []string
	Related      []string
}

// Request bundles everything the scoring engine needs about the query
// side of a (request, pattern) pair.
type Request struct {
	Task    string
	Paths   []string
	Signals Signals
	Exclude map[string]bool
}

// PathMatcher abstracts the trie's match predicate so this package
// never imports internal/trie directly; the lookup orchestrator wires
// the concrete trie in.
type PathMatcher interface {
	GlobMatches(glob, path string) bool
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stopWords is a small, fixed set; the text_score overlap is meant to
// reward shared domain vocabulary, not shared grammar.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "for": true, "is": true, "it": true,
	"this": true, "that": true, "with": true, "as": true, "at": true, "by": true,
}

func tokenizeText(s string) map[string]bool {
	lower := strings.ToLower(s)
	fields := nonAlnum.Split(lower, -1)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == "" || stopWords[f] {
			continue
		}
		out[f] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	score := float64(intersection) / float64(union)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// pathScore is the fraction of p's declared path globs that match one
// of the request's candidate paths, averaged across request paths; 0
// when the request declares no paths.
func pathScore(p *pattern.Pattern, paths []string, matcher PathMatcher) float64 {
	if len(paths) == 0 || len(p.Paths) == 0 {
		return 0
	}
	var total float64
	for _, reqPath := range paths {
		matched := 0
		for _, glob := range p.Paths {
			if matcher.GlobMatches(glob, reqPath) {
				matched++
			}
		}
		total += float64(matched) / float64(len(p.Paths))
	}
	return total / float64(len(paths))
}

// textScore is Jaccard overlap between the request task text and the
// union of the pattern's title, summary, and tags.
func textScore(p *pattern.Pattern, task string) float64 {
	reqTokens := tokenizeText(task)
	var sb strings.Builder
	sb.WriteString(p.Title)
	sb.WriteByte(' ')
	sb.WriteString(p.Summary)
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(p.Tags, " "))
	patTokens := tokenizeText(sb.String())
	return jaccard(reqTokens, patTokens)
}

// signalScore combines exact and related boosts by maximum, never sum,
// so stacking multiple matching signals cannot inflate a score past
// its single strongest contribution.
func signalScore(p *pattern.Pattern, sig Signals) float64 {
	best := 0.0
	for _, id := range sig.PriorSuccess {
		if id == p.ID && 1.0 > best {
			best = 1.0
		}
	}
	for _, id := range sig.Related {
		if id == p.ID && 0.5 > best {
			best = 0.5
		}
	}
	return best
}

// Score computes the composite score for one (request, pattern) pair.
// Calling Score twice with identical inputs yields a bitwise-identical
// result: every component is a pure function of its inputs with no
// hidden state.
func Score(req Request, p *pattern.Pattern, matcher PathMatcher, w Weights) float64 {
	if req.Exclude != nil && req.Exclude[p.ID] {
		return 0
	}

	trust := p.TrustScore
	score := w.Path*pathScore(p, req.Paths, matcher) +
		w.Text*textScore(p, req.Task) +
		w.Signal*signalScore(p, req.Signals) +
		w.Trust*trust

	if p.Deprecated {
		score *= 0.25
	}
	return score
}
