// Package lookup implements the end-to-end request flow from §4.F: it
// wires the bloom prefilter, the path trie, the scalar filters, the
// scoring engine, and the top-K heap into one orchestrated query, under
// the readers-writer / copy-on-write discipline from §5.
package lookup

import (
	"sync"

	"github.com/apex-run/apex-core/internal/bloom"
	"github.com/apex-run/apex-core/internal/pattern"
	"github.com/apex-run/apex-core/internal/trie"
)

// index is one immutable, fully-built snapshot of the retrieval
// structures plus the pattern records they index. A write replaces the
// *index pointer inside Orchestrator wholesale rather than mutating one
// in place, so an in-flight reader holding a pointer it captured before
// the swap always sees a self-consistent pre- or post-write view, never
// a blend — the copy-on-write half of the RWMutex discipline in §5.
type index struct {
	generation uint64
	bloom      *bloom.Filter
	trie       *trie.Trie
	patterns   map[string]*pattern.Pattern
	byType     map[pattern.Kind]map[string]bool
}

func buildIndex(generation uint64, patterns []*pattern.Pattern) *index {
	idx := &index{
		generation: generation,
		trie:       trie.New(),
		patterns:   make(map[string]*pattern.Pattern, len(patterns)),
		byType:     make(map[pattern.Kind]map[string]bool),
	}

	var allPaths []string
	for _, p := range patterns {
		idx.patterns[p.ID] = p
		for _, g := range p.Paths {
			idx.trie.Insert(g, p.ID)
			allPaths = append(allPaths, g)
		}
		if idx.byType[p.Type] == nil {
			idx.byType[p.Type] = make(map[string]bool)
		}
		idx.byType[p.Type][p.ID] = true
	}
	idx.bloom = bloom.NewDefault(allPaths)
	return idx
}

// indexHolder guards the live *index pointer with a RWMutex: readers
// (lookups) take RLock just long enough to snapshot the pointer, then
// release it immediately and run the rest of the query lock-free
// against their captured snapshot; writers (Reindex) take Lock while
// the next generation is built and swapped in.
type indexHolder struct {
	mu  sync.RWMutex
	cur *index
}

func newIndexHolder(patterns []*pattern.Pattern) *indexHolder {
	return &indexHolder{cur: buildIndex(1, patterns)}
}

func (h *indexHolder) snapshot() *index {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

func (h *indexHolder) replace(patterns []*pattern.Pattern) *index {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := buildIndex(h.cur.generation+1, patterns)
	h.cur = next
	return next
}
