package testutil

import (
	"context"
	"sync"

	"github.com/taxbridge/taxbridge/internal/domain/dataexchange"
	"github.com/taxbridge/taxbridge/internal/types"
)

// InMemoryDataExchangeStore implements dataexchange.Repository.
type InMemoryDataExchangeStore struct {
	mu   sync.RWMutex
	rows []*dataexchange.Parameter
}

func NewInMemoryDataExchangeStore() *InMemoryDataExchangeStore {
	return &InMemoryDataExchangeStore{}
}

func (s *InMemoryDataExchangeStore) Add(row *dataexchange.Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
}

func (s *InMemoryDataExchangeStore) List(ctx context.Context, filter *types.DataExchangeFilter) ([]*dataexchange.Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*dataexchange.Parameter
	for _, row := range s.rows {
		if filter != nil {
			if filter.FormType != "" && row.FormType != filter.FormType {
				continue
			}
			if filter.Subsidiary != "" && row.Subsidiary != "" && row.Subsidiary != filter.Subsidiary {
				continue
			}
		}
		result = append(result, row)
	}
	return result, nil
}

func (s *InMemoryDataExchangeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
}
