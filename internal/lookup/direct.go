package lookup

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/domain/refcode"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/types"
)

// DirectResolver resolves one id at a time against the repository. It is
// the fallback capability for callers running outside a batch lookup pass.
type DirectResolver struct {
	repo   refcode.Repository
	logger *logger.Logger
}

func NewDirectResolver(repo refcode.Repository, log *logger.Logger) *DirectResolver {
	return &DirectResolver{
		repo:   repo,
		logger: log,
	}
}

func (r *DirectResolver) resolve(ctx context.Context, category types.LookupCategory, id string) string {
	if id == "" {
		return ""
	}
	code, err := r.repo.Get(ctx, category, id)
	if err != nil {
		if !ierr.IsNotFound(err) {
			r.logger.Warnw("reference code lookup failed",
				"category", category,
				"id", id,
				"error", err)
		}
		return ""
	}
	return code.Value
}

func (r *DirectResolver) TaxIncludedCode(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupTaxIncludedCode, id)
}

func (r *DirectResolver) UnitType(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupUnitType, id)
}

func (r *DirectResolver) SitusRule(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupSitusRule, id)
}

func (r *DirectResolver) TaxType(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupTaxType, id)
}

func (r *DirectResolver) RegulatoryCode(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupRegulatoryCode, id)
}

func (r *DirectResolver) ExemptionCode(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupExemptionCode, id)
}

func (r *DirectResolver) ExemptionReason(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupExemptionReason, id)
}

func (r *DirectResolver) CustomerType(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupCustomerType, id)
}

func (r *DirectResolver) TransactionType(ctx context.Context, id string) string {
	return r.resolve(ctx, types.LookupTransactionType, id)
}
