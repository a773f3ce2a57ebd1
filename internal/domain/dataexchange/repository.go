package dataexchange

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Repository queries data-exchange parameter bindings.
type Repository interface {
	List(ctx context.Context, filter *types.DataExchangeFilter) ([]*Parameter, error)
}
