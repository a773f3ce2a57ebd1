package testutil

import (
	"context"
	"sync"

	"github.com/taxbridge/taxbridge/internal/domain/calllog"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/types"
)

// InMemoryCallLogStore implements calllog.Repository. Insertion order is
// tracked so Latest resolves the most recent log without timestamps.
type InMemoryCallLogStore struct {
	mu    sync.RWMutex
	logs  map[string]*calllog.CallLog
	order []string
}

func NewInMemoryCallLogStore() *InMemoryCallLogStore {
	return &InMemoryCallLogStore{
		logs: make(map[string]*calllog.CallLog),
	}
}

func (s *InMemoryCallLogStore) Create(ctx context.Context, log *calllog.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.logs[log.ID]; exists {
		return ierr.NewError("call log already exists").
			WithHintf("Call log %s already exists", log.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.logs[log.ID] = log
	s.order = append(s.order, log.ID)
	return nil
}

func (s *InMemoryCallLogStore) Update(ctx context.Context, log *calllog.CallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.logs[log.ID]; !exists {
		return notFoundCallLog(log.ID)
	}
	s.logs[log.ID] = log
	return nil
}

func (s *InMemoryCallLogStore) Get(ctx context.Context, id string) (*calllog.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if log, ok := s.logs[id]; ok {
		return log, nil
	}
	return nil, notFoundCallLog(id)
}

func (s *InMemoryCallLogStore) List(ctx context.Context, filter *types.CallLogFilter) ([]*calllog.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*calllog.CallLog
	for _, id := range s.order {
		log := s.logs[id]
		if filter != nil {
			if filter.TransactionID != 0 && log.TransactionID != filter.TransactionID {
				continue
			}
			if filter.RecordType != "" && log.RecordType != filter.RecordType {
				continue
			}
			if filter.Kind != "" && log.Kind != filter.Kind {
				continue
			}
		}
		result = append(result, log)
	}
	return result, nil
}

func (s *InMemoryCallLogStore) Latest(ctx context.Context, transactionID int64, recordType types.RecordType) (*calllog.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		log := s.logs[s.order[i]]
		if log.Kind == types.CallLogKindService &&
			log.TransactionID == transactionID &&
			log.RecordType == recordType {
			return log, nil
		}
	}
	return nil, ierr.NewError("call log not found").
		WithHintf("No call log for transaction %d", transactionID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryCallLogStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string]*calllog.CallLog)
	s.order = nil
}

func notFoundCallLog(id string) error {
	return ierr.NewError("call log not found").
		WithHintf("No call log with id %s", id).
		Mark(ierr.ErrNotFound)
}

// InMemoryCallLogUpdateStore implements calllog.UpdateRepository.
type InMemoryCallLogUpdateStore struct {
	mu    sync.RWMutex
	recs  map[string]*calllog.UpdateRecord
	order []string
}

func NewInMemoryCallLogUpdateStore() *InMemoryCallLogUpdateStore {
	return &InMemoryCallLogUpdateStore{
		recs: make(map[string]*calllog.UpdateRecord),
	}
}

func (s *InMemoryCallLogUpdateStore) Create(ctx context.Context, rec *calllog.UpdateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recs[rec.ID]; exists {
		return ierr.NewError("update record already exists").
			WithHintf("Update record %s already exists", rec.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.recs[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *InMemoryCallLogUpdateStore) Update(ctx context.Context, rec *calllog.UpdateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recs[rec.ID]; !exists {
		return notFoundUpdateRecord(rec.ID)
	}
	s.recs[rec.ID] = rec
	return nil
}

func (s *InMemoryCallLogUpdateStore) List(ctx context.Context, filter *types.CallLogUpdateFilter) ([]*calllog.UpdateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*calllog.UpdateRecord
	for _, id := range s.order {
		rec := s.recs[id]
		if filter != nil {
			if filter.TransID != "" && rec.TransID != filter.TransID {
				continue
			}
			if filter.RecordType != "" && rec.RecordType != filter.RecordType {
				continue
			}
			if filter.Updated != nil && rec.Updated != *filter.Updated {
				continue
			}
			if filter.LogID != "" && rec.LogID != filter.LogID {
				continue
			}
		}
		result = append(result, rec)
	}
	return result, nil
}

func (s *InMemoryCallLogUpdateStore) Latest(ctx context.Context, transID string, recordType types.RecordType) (*calllog.UpdateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.recs[s.order[i]]
		if rec.TransID == transID && rec.RecordType == recordType {
			return rec, nil
		}
	}
	return nil, ierr.NewError("update record not found").
		WithHintf("No update record for transaction %s", transID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryCallLogUpdateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = make(map[string]*calllog.UpdateRecord)
	s.order = nil
}

func notFoundUpdateRecord(id string) error {
	return ierr.NewError("update record not found").
		WithHintf("No update record with id %s", id).
		Mark(ierr.ErrNotFound)
}
