package store

import (
	"context"
	"sort"
	"sync"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/pattern"
)

// MemoryStore is a process-local Store guarded by a plain mutex. It
// backs the core's own test suite and the cmd/apex demonstration
// entrypoint, which always loads patterns into one.
type MemoryStore struct {
	mu       sync.Mutex
	patterns map[string]*pattern.Pattern
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{patterns: make(map[string]*pattern.Pattern)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*pattern.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[id]
	if !ok {
		return nil, &apexerr.NotFoundError{ID: id}
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, p *pattern.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.TrustScore = pattern.DerivedTrustScore(cp.Usage)
	s.patterns[p.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patterns, id)
	return nil
}

func (s *MemoryStore) All(_ context.Context) ([]*pattern.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pattern.Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
