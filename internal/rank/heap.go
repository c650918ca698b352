// Package rank implements the bounded top-K heap and the composite
// scoring function the lookup orchestrator uses to turn a set of
// candidate patterns into an ordered result list.
package rank

import (
	"container/heap"
	"sort"
)

// Scored pairs a pattern id with the score it earned against one
// request. Ties are broken by ID ascending, matching the trie's own
// set ordering so ranked output is deterministic regardless of the
// order candidates were discovered in.
type Scored struct {
	ID    string
	Score float64
}

// less reports whether a sorts before b in descending rank order:
// higher score first, then lower id.
func less(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// minHeap is a container/heap.Interface ordering by ascending score
// (ties by descending id) so the root is always the current weakest
// member of the top-K set — the one to evict when a stronger
// candidate arrives.
type minHeap []Scored

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	// Root of the min-heap must be the item that would sort LAST in
	// descending rank order, so this is the inverse of less().
	return less(h[j], h[i])
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK maintains the K highest-scoring items seen so far via
// container/heap, the one data structure in this package built on the
// standard library rather than a third-party priority queue — no
// priority-queue package appears anywhere in the retrieved dependency
// pack, and container/heap already gives O(log K) push/replace.
type TopK struct {
	k int
	h minHeap
}

// NewTopK returns a TopK with capacity k. k must be >= 1.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// PushIfTopK offers item for inclusion in the top-K set. Returns
// whether the heap's contents changed.
func (t *TopK) PushIfTopK(item Scored) bool {
	if len(t.h) < t.k {
		heap.Push(&t.h, item)
		return true
	}
	if less(item, t.h[0]) {
		t.h[0] = item
		heap.Fix(&t.h, 0)
		return true
	}
	return false
}

// Len reports the current number of held items (<= k).
func (t *TopK) Len() int { return len(t.h) }

// ToSortedDesc returns a new slice of every held item sorted in
// descending rank order, leaving the heap untouched.
func (t *TopK) ToSortedDesc() []Scored {
	out := make([]Scored, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
