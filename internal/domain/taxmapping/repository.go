package taxmapping

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/types"
)

// Repository queries tax-code mapping rules.
type Repository interface {
	List(ctx context.Context, filter *types.TaxMappingFilter) ([]*Mapping, error)
}

// NexusRepository resolves nexus jurisdictions and their tax codes.
type NexusRepository interface {
	// ListByCountry returns the nexuses configured for a country.
	ListByCountry(ctx context.Context, country string) ([]*Nexus, error)
	// FirstTaxCode returns the first tax code available under a nexus,
	// used to synthesize placeholder detail lines.
	FirstTaxCode(ctx context.Context, nexusID string) (*Pair, error)
}

// TaxCategoryRepository resolves reporting categories by category code.
type TaxCategoryRepository interface {
	GetByCode(ctx context.Context, code string) (*TaxCategory, error)
}
