package calllog

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Repository persists call logs.
type Repository interface {
	Create(ctx context.Context, log *CallLog) error
	Update(ctx context.Context, log *CallLog) error
	Get(ctx context.Context, id string) (*CallLog, error)
	List(ctx context.Context, filter *types.CallLogFilter) ([]*CallLog, error)
	// Latest returns the most recent service-call log for a transaction,
	// ErrNotFound when none exists.
	Latest(ctx context.Context, transactionID int64, recordType types.RecordType) (*CallLog, error)
}

// UpdateRepository persists call-log-update records.
type UpdateRepository interface {
	Create(ctx context.Context, rec *UpdateRecord) error
	Update(ctx context.Context, rec *UpdateRecord) error
	List(ctx context.Context, filter *types.CallLogUpdateFilter) ([]*UpdateRecord, error)
	// Latest returns the most recent update record for a transaction id,
	// ErrNotFound when none exists.
	Latest(ctx context.Context, transID string, recordType types.RecordType) (*UpdateRecord, error)
}
