package testutil

import (
	"context"
	"sync"

	"github.com/taxbridge/taxbridge/internal/domain/refcode"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/types"
)

// InMemoryRefCodeStore implements refcode.Repository. QueryCount counts
// ListByIDs round trips so tests can assert the lookup cache batches.
type InMemoryRefCodeStore struct {
	mu         sync.RWMutex
	codes      map[string]*refcode.RefCode
	QueryCount int
}

func NewInMemoryRefCodeStore() *InMemoryRefCodeStore {
	return &InMemoryRefCodeStore{
		codes: make(map[string]*refcode.RefCode),
	}
}

func refCodeKey(category types.LookupCategory, id string) string {
	return string(category) + ":" + id
}

// Add seeds one reference code row.
func (s *InMemoryRefCodeStore) Add(category types.LookupCategory, id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[refCodeKey(category, id)] = &refcode.RefCode{
		ID:       id,
		Category: category,
		Value:    value,
	}
}

func (s *InMemoryRefCodeStore) ListByIDs(ctx context.Context, category types.LookupCategory, ids []string) ([]*refcode.RefCode, error) {
	s.mu.Lock()
	s.QueryCount++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*refcode.RefCode
	for _, id := range ids {
		if code, ok := s.codes[refCodeKey(category, id)]; ok {
			result = append(result, code)
		}
	}
	return result, nil
}

func (s *InMemoryRefCodeStore) Get(ctx context.Context, category types.LookupCategory, id string) (*refcode.RefCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if code, ok := s.codes[refCodeKey(category, id)]; ok {
		return code, nil
	}
	return nil, ierr.NewError("reference code not found").
		WithHintf("No %s code with id %s", category, id).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryRefCodeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = make(map[string]*refcode.RefCode)
	s.QueryCount = 0
}
