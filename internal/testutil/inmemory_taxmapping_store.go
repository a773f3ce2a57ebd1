package testutil

import (
	"context"
	"sync"

	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/types"
)

// InMemoryTaxMappingStore implements taxmapping.Repository. QueryCount
// counts List calls so tests can assert the per-run mapping cache.
type InMemoryTaxMappingStore struct {
	mu         sync.RWMutex
	rows       []*taxmapping.Mapping
	QueryCount int
}

func NewInMemoryTaxMappingStore() *InMemoryTaxMappingStore {
	return &InMemoryTaxMappingStore{}
}

func (s *InMemoryTaxMappingStore) Add(row *taxmapping.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
}

func (s *InMemoryTaxMappingStore) List(ctx context.Context, filter *types.TaxMappingFilter) ([]*taxmapping.Mapping, error) {
	s.mu.Lock()
	s.QueryCount++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*taxmapping.Mapping
	for _, row := range s.rows {
		if filter.DefaultOnly {
			if !row.IsDefault {
				continue
			}
		} else if row.TaxTypeCode != filter.TaxTypeCode {
			continue
		}
		if filter.State != "" && row.State != filter.State {
			continue
		}
		if row.Country != filter.Country {
			continue
		}
		if row.TaxIncludedCode != filter.TaxIncludedCode {
			continue
		}
		if filter.Subsidiary != "" && row.Subsidiary != "" && row.Subsidiary != filter.Subsidiary {
			continue
		}
		result = append(result, row)
	}
	return result, nil
}

func (s *InMemoryTaxMappingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.QueryCount = 0
}

// InMemoryNexusStore implements taxmapping.NexusRepository.
type InMemoryNexusStore struct {
	mu           sync.RWMutex
	nexuses      []*taxmapping.Nexus
	firstTaxCode map[string]taxmapping.Pair
}

func NewInMemoryNexusStore() *InMemoryNexusStore {
	return &InMemoryNexusStore{
		firstTaxCode: make(map[string]taxmapping.Pair),
	}
}

func (s *InMemoryNexusStore) Add(nexus *taxmapping.Nexus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nexuses = append(s.nexuses, nexus)
}

func (s *InMemoryNexusStore) SetFirstTaxCode(nexusID string, pair taxmapping.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstTaxCode[nexusID] = pair
}

func (s *InMemoryNexusStore) ListByCountry(ctx context.Context, country string) ([]*taxmapping.Nexus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*taxmapping.Nexus
	for _, nexus := range s.nexuses {
		if nexus.Country == country {
			result = append(result, nexus)
		}
	}
	return result, nil
}

func (s *InMemoryNexusStore) FirstTaxCode(ctx context.Context, nexusID string) (*taxmapping.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pair, ok := s.firstTaxCode[nexusID]; ok {
		return &pair, nil
	}
	return nil, ierr.NewError("nexus has no tax codes").
		WithHintf("No tax code under nexus %s", nexusID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryNexusStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nexuses = nil
	s.firstTaxCode = make(map[string]taxmapping.Pair)
}

// InMemoryTaxCategoryStore implements taxmapping.TaxCategoryRepository.
type InMemoryTaxCategoryStore struct {
	mu         sync.RWMutex
	categories map[string]*taxmapping.TaxCategory
}

func NewInMemoryTaxCategoryStore() *InMemoryTaxCategoryStore {
	return &InMemoryTaxCategoryStore{
		categories: make(map[string]*taxmapping.TaxCategory),
	}
}

func (s *InMemoryTaxCategoryStore) Add(category *taxmapping.TaxCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.Code] = category
}

func (s *InMemoryTaxCategoryStore) GetByCode(ctx context.Context, code string) (*taxmapping.TaxCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if category, ok := s.categories[code]; ok {
		return category, nil
	}
	return nil, ierr.NewError("tax category not found").
		WithHintf("No tax category with code %s", code).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryTaxCategoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make(map[string]*taxmapping.TaxCategory)
}
