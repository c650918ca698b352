// Package bloom implements the path prefilter described in the lookup
// pipeline's design: a space-efficient set over path tokens, built once
// at index-construction time, that lets a query reject paths no
// declared pattern could ever match without walking the trie.
//
// No ecosystem Bloom filter turned up anywhere in the retrieved
// dependency pack, and the m/k sizing derivation and seed-independence
// requirement are themselves the thing being specified here, not an
// ambient concern to delegate to a library — so this is hand-rolled on
// top of a plain bitset.
package bloom

import (
	"hash/fnv"
	"math"

	"github.com/apex-run/apex-core/internal/pathtok"
)

// Filter is a positional Bloom filter over path tokens. Plain
// token-level membership ("is this word used anywhere") cannot express
// the common case of a pattern declared as "src/ui/**": tokens past the
// "**" (the matched filename's own tokens) are never known in advance,
// so testing membership of every query token against a flat vocabulary
// would reject paths the trie would otherwise confirm.
//
// Filter instead keys insertions by (position, token) and caps how many
// leading query positions it checks at the shallowest wildcard depth
// declared by any pattern in the store. Capping shallow is always safe:
// checking fewer positions can only turn a true rejection into a false
// positive (which the trie then sorts out), never the reverse.
type Filter struct {
	bits  []uint64
	m     uint64
	k     uint64
	seeds []uint64

	// empty marks a filter built from no declared paths at all; it
	// rejects every query rather than passing everything through,
	// which the zero-wildcard-depth case below would otherwise do.
	empty bool

	// maxCheckDepth is the number of leading query-path token
	// positions this filter is willing to test. It is the minimum,
	// over every inserted pattern path, of that path's own token
	// count (if it has no wildcard segment) or the index of its
	// first wildcard segment (if it does).
	maxCheckDepth int
}

const defaultFalsePositiveRate = 0.1

// New builds a Filter from the token vocabulary of every declared
// pattern path. fpRate is the target false-positive rate used to size
// the underlying bitset and hash count; callers that don't have an
// opinion should pass defaultFalsePositiveRate via NewDefault.
func New(paths []string, fpRate float64) *Filter {
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = defaultFalsePositiveRate
	}

	type posToken struct {
		pos   int
		token string
	}

	var entries []posToken
	maxCheckDepth := math.MaxInt32

	for _, p := range paths {
		tokens := pathtok.Tokenize(p)
		cutoff := len(tokens)
		for i, t := range tokens {
			if pathtok.IsWildcard(t) {
				cutoff = i
				break
			}
			entries = append(entries, posToken{pos: i, token: t})
		}
		if cutoff < maxCheckDepth {
			maxCheckDepth = cutoff
		}
	}
	if maxCheckDepth == math.MaxInt32 {
		maxCheckDepth = 0
		for _, p := range paths {
			if n := len(pathtok.Tokenize(p)); n > maxCheckDepth {
				maxCheckDepth = n
			}
		}
	}

	n := uint64(len(entries))
	if n == 0 {
		n = 1
	}
	m, k := sizeFor(n, fpRate)

	f := &Filter{
		bits:          make([]uint64, (m+63)/64),
		m:             m,
		k:             k,
		seeds:         seedsFor(k),
		empty:         len(paths) == 0,
		maxCheckDepth: maxCheckDepth,
	}
	for _, e := range entries {
		f.insert(e.pos, e.token)
	}
	return f
}

// NewDefault builds a Filter at the standard 10% target false-positive rate.
func NewDefault(paths []string) *Filter {
	return New(paths, defaultFalsePositiveRate)
}

// sizeFor derives the bit count m and hash count k from the expected
// item count n and target false-positive rate p, per the standard
// optimal-Bloom-filter formulas:
//
//	m = ceil(-n * ln(p) / (ln 2)^2)
//	k = ceil((m / n) * ln 2)
//
// m is floored at 64 bits so a store declaring only a handful of path
// tokens does not get a bitset small enough to pass unrelated paths.
func sizeFor(n uint64, p float64) (m, k uint64) {
	ln2 := math.Ln2
	mf := math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2))
	if mf < 64 {
		mf = 64
	}
	m = uint64(mf)
	kf := math.Ceil((mf / float64(n)) * ln2)
	if kf < 1 {
		kf = 1
	}
	k = uint64(kf)
	return m, k
}

// seedsFor returns k independent hash seeds. Each seed perturbs an
// FNV-1a hash deterministically, giving k statistically independent
// bit positions per insert/query without pulling in a second hash
// family.
func seedsFor(k uint64) []uint64 {
	seeds := make([]uint64, k)
	for i := range seeds {
		seeds[i] = 0x9E3779B97F4A7C15 * uint64(i+1)
	}
	return seeds
}

func (f *Filter) positions(pos int, token string) []uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	base := h.Sum64() ^ (uint64(pos)*0x100000001B3 + 1)

	positions := make([]uint64, len(f.seeds))
	for i, seed := range f.seeds {
		mixed := base ^ seed
		mixed ^= mixed >> 33
		mixed *= 0xff51afd7ed558ccd
		mixed ^= mixed >> 33
		positions[i] = mixed % f.m
	}
	return positions
}

func (f *Filter) insert(pos int, token string) {
	for _, bit := range f.positions(pos, token) {
		f.bits[bit/64] |= 1 << (bit % 64)
	}
}

func (f *Filter) has(pos int, token string) bool {
	for _, bit := range f.positions(pos, token) {
		if f.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// MightMatch reports whether path could possibly match some indexed
// pattern. false is a definite no: the trie need not be consulted.
// true is a maybe: the trie confirms or refutes it. False positives
// are expected and harmless; false negatives would silently drop real
// matches and must never happen.
func (f *Filter) MightMatch(path string) bool {
	if f.empty {
		return false
	}
	tokens := pathtok.Tokenize(path)
	limit := f.maxCheckDepth
	if len(tokens) < limit {
		limit = len(tokens)
	}
	for i := 0; i < limit; i++ {
		if !f.has(i, tokens[i]) {
			return false
		}
	}
	return true
}
