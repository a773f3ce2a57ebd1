package erp

import (
	"context"
	"time"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Repository is the host record-store boundary: the transaction lookups
// the pipeline needs without owning any ERP persistence.
type Repository interface {
	TransactionExists(ctx context.Context, id int64) (bool, error)
	TransactionType(ctx context.Context, id int64) (types.RecordType, error)
	// CreatedFrom returns the id of the transaction this one was created
	// from, 0 when there is none.
	CreatedFrom(ctx context.Context, recordType types.RecordType, id int64) (int64, error)
	TransactionDate(ctx context.Context, recordType types.RecordType, id int64) (time.Time, error)
	StoredTaxDetails(ctx context.Context, recordType types.RecordType, id int64) ([]*StoredTaxDetail, error)
	IsPeriodClosed(ctx context.Context, periodID string) (bool, error)
}
