package refcode

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Repository resolves reference-code tables. ListByIDs must issue a single
// query per call so the lookup cache can batch one round trip per category.
type Repository interface {
	ListByIDs(ctx context.Context, category types.LookupCategory, ids []string) ([]*RefCode, error)
	Get(ctx context.Context, category types.LookupCategory, id string) (*RefCode, error)
}
