package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taxbridge/taxbridge/internal/domain/erp"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/types"
)

// ERPTransaction is one seeded host transaction record.
type ERPTransaction struct {
	ID          int64
	Type        types.RecordType
	CreatedFrom int64
	Date        time.Time
}

// InMemoryERPStore implements erp.Repository over seeded records.
type InMemoryERPStore struct {
	mu            sync.RWMutex
	transactions  map[int64]*ERPTransaction
	closedPeriods map[string]bool
	storedDetails map[string][]*erp.StoredTaxDetail
}

func NewInMemoryERPStore() *InMemoryERPStore {
	return &InMemoryERPStore{
		transactions:  make(map[int64]*ERPTransaction),
		closedPeriods: make(map[string]bool),
		storedDetails: make(map[string][]*erp.StoredTaxDetail),
	}
}

func storedDetailKey(recordType types.RecordType, id int64) string {
	return fmt.Sprintf("%s:%d", recordType, id)
}

func (s *InMemoryERPStore) AddTransaction(trans *ERPTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[trans.ID] = trans
}

func (s *InMemoryERPStore) ClosePeriod(periodID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closedPeriods[periodID] = true
}

func (s *InMemoryERPStore) SetStoredTaxDetails(recordType types.RecordType, id int64, details []*erp.StoredTaxDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storedDetails[storedDetailKey(recordType, id)] = details
}

func (s *InMemoryERPStore) TransactionExists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.transactions[id]
	return ok, nil
}

func (s *InMemoryERPStore) TransactionType(ctx context.Context, id int64) (types.RecordType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if trans, ok := s.transactions[id]; ok {
		return trans.Type, nil
	}
	return "", notFoundTransaction(id)
}

func (s *InMemoryERPStore) CreatedFrom(ctx context.Context, recordType types.RecordType, id int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if trans, ok := s.transactions[id]; ok {
		return trans.CreatedFrom, nil
	}
	return 0, notFoundTransaction(id)
}

func (s *InMemoryERPStore) TransactionDate(ctx context.Context, recordType types.RecordType, id int64) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if trans, ok := s.transactions[id]; ok {
		return trans.Date, nil
	}
	return time.Time{}, notFoundTransaction(id)
}

func (s *InMemoryERPStore) StoredTaxDetails(ctx context.Context, recordType types.RecordType, id int64) ([]*erp.StoredTaxDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storedDetails[storedDetailKey(recordType, id)], nil
}

func (s *InMemoryERPStore) IsPeriodClosed(ctx context.Context, periodID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closedPeriods[periodID], nil
}

func (s *InMemoryERPStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make(map[int64]*ERPTransaction)
	s.closedPeriods = make(map[string]bool)
	s.storedDetails = make(map[string][]*erp.StoredTaxDetail)
}

func notFoundTransaction(id int64) error {
	return ierr.NewError("transaction not found").
		WithHintf("No transaction with id %d", id).
		Mark(ierr.ErrNotFound)
}
