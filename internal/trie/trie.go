// Package trie implements the path-to-pattern index described in the
// lookup pipeline: a tree keyed by path token, where each node may
// carry the ids of every pattern whose declared glob terminates there.
// It is the structure the bloom prefilter protects from cold lookups.
package trie

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/apex-run/apex-core/internal/pathtok"
)

// node is one edge-target in the trie. children is keyed by the raw
// token text, including wildcard tokens such as "*" or "**" — those
// are matched specially by findCandidates rather than by direct map
// lookup.
type node struct {
	children map[string]*node
	// patternIDs collects every pattern whose path tokenization ends
	// exactly at this node.
	patternIDs []string
	isGlob     bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Trie maps tokenized path globs to the pattern ids declared at them.
// It is read by many goroutines and rebuilt wholesale on writes (see
// the lookup orchestrator's copy-on-write index), so Trie itself needs
// no internal locking beyond guarding its own construction.
type Trie struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

// GlobMatcher adapts MatchGlob to the rank package's PathMatcher
// interface, so the scoring engine can test declared-glob matches
// without importing this package directly.
type GlobMatcher struct{}

// GlobMatches reports whether path matches glob.
func (GlobMatcher) GlobMatches(glob, path string) bool {
	return MatchGlob(glob, path)
}

// Insert adds patternID at every token path produced by tokenizing
// glob. A pattern declaring several paths calls Insert once per path.
func (t *Trie) Insert(glob, patternID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tokens := pathtok.Tokenize(glob)
	cur := t.root
	for _, tok := range tokens {
		child, ok := cur.children[tok]
		if !ok {
			child = newNode()
			child.isGlob = pathtok.IsWildcard(tok)
			cur.children[tok] = child
		}
		cur = child
	}
	cur.patternIDs = append(cur.patternIDs, patternID)
}

// FindCandidates returns the set of pattern ids whose declared glob
// matches path, deduplicated. Matching descends the trie token by
// token, trying in order at each level:
//
//  1. an exact literal child for the current token,
//  2. a single-segment glob child ("*" or "?"-bearing) whose compiled
//     regex matches the current token,
//  3. a "**" child, which may consume zero or more remaining tokens
//     before resuming the match at any suffix position.
//
// All three are tried (not short-circuited on the first match) since
// more than one declared pattern can match the same path.
func (t *Trie) FindCandidates(path string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tokens := pathtok.Tokenize(path)
	seen := make(map[string]bool)
	var out []string

	collect := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	var walk func(n *node, pos int)
	walk = func(n *node, pos int) {
		if pos == len(tokens) {
			collect(n.patternIDs)
			return
		}
		tok := tokens[pos]

		if child, ok := n.children[tok]; ok {
			walk(child, pos+1)
		}

		for key, child := range n.children {
			if key == tok || key == "**" {
				continue
			}
			if isSingleSegmentGlob(key) && globSegmentMatches(key, tok) {
				walk(child, pos+1)
			}
		}

		if child, ok := n.children["**"]; ok {
			for rest := pos; rest <= len(tokens); rest++ {
				walk(child, rest)
			}
		}
	}
	walk(t.root, 0)

	sort.Strings(out)
	return out
}

func isSingleSegmentGlob(token string) bool {
	return token != "**" && strings.ContainsAny(token, "*?")
}

var globRegexCache sync.Map // string -> *regexp.Regexp

// globSegmentMatches reports whether a single trie token containing
// "*" or "?" matches a literal query token, translating "*" to ".*"
// and "?" to "." the way a shell glob does.
func globSegmentMatches(globToken, literal string) bool {
	re, ok := globRegexCache.Load(globToken)
	if !ok {
		var b strings.Builder
		b.WriteByte('^')
		for _, r := range globToken {
			switch r {
			case '*':
				b.WriteString(".*")
			case '?':
				b.WriteString(".")
			default:
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		b.WriteByte('$')
		compiled := regexp.MustCompile(b.String())
		globRegexCache.Store(globToken, compiled)
		re = compiled
	}
	return re.(*regexp.Regexp).MatchString(literal)
}

// MatchGlob reports whether path matches glob directly, without
// consulting any Trie. The scoring engine's path_score component uses
// this to test each of a pattern's declared globs against a request
// path individually, which is a different question from "which
// pattern ids apply to this path" and does not warrant building a
// throwaway trie per call.
func MatchGlob(glob, path string) bool {
	globTokens := pathtok.Tokenize(glob)
	pathTokens := pathtok.Tokenize(path)

	var match func(gi, pi int) bool
	match = func(gi, pi int) bool {
		if gi == len(globTokens) {
			return pi == len(pathTokens)
		}
		tok := globTokens[gi]
		if tok == "**" {
			for rest := pi; rest <= len(pathTokens); rest++ {
				if match(gi+1, rest) {
					return true
				}
			}
			return false
		}
		if pi == len(pathTokens) {
			return false
		}
		if isSingleSegmentGlob(tok) {
			if globSegmentMatches(tok, pathTokens[pi]) {
				return match(gi+1, pi+1)
			}
			return false
		}
		if tok == pathTokens[pi] {
			return match(gi+1, pi+1)
		}
		return false
	}
	return match(0, 0)
}
