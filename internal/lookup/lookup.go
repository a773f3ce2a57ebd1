package lookup

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/domain/refcode"
	"github.com/taxbridge/taxbridge/internal/logger"
	"github.com/taxbridge/taxbridge/internal/types"
)

// CodeResolver resolves reference-code ids to the string values the tax
// service expects. An unknown or empty id resolves to "".
type CodeResolver interface {
	TaxIncludedCode(ctx context.Context, id string) string
	UnitType(ctx context.Context, id string) string
	SitusRule(ctx context.Context, id string) string
	TaxType(ctx context.Context, id string) string
	RegulatoryCode(ctx context.Context, id string) string
	ExemptionCode(ctx context.Context, id string) string
	ExemptionReason(ctx context.Context, id string) string
	CustomerType(ctx context.Context, id string) string
	TransactionType(ctx context.Context, id string) string
}

// Cache is the per-run batch lookup cache. Keys are registered in one pass
// over the transaction lines, resolved with a single query per category,
// then read during line construction. The cache is scoped to a single
// calculation and must be discarded with Cleanup when the run ends.
type Cache struct {
	repo   refcode.Repository
	logger *logger.Logger

	resolved map[types.LookupCategory]map[string]string
	pending  map[types.LookupCategory]map[string]struct{}
}

// NewCache creates an initialized cache for one calculation run.
func NewCache(repo refcode.Repository, log *logger.Logger) *Cache {
	c := &Cache{
		repo:   repo,
		logger: log,
	}
	c.Initialize()
	return c
}

// Initialize resets all registered and resolved keys.
func (c *Cache) Initialize() {
	c.resolved = make(map[types.LookupCategory]map[string]string)
	c.pending = make(map[types.LookupCategory]map[string]struct{})
	for _, category := range types.LookupCategories {
		c.resolved[category] = make(map[string]string)
		c.pending[category] = make(map[string]struct{})
	}
}

// AddKey registers an id as needing resolution for a category. Empty ids
// are ignored so callers can register optional fields unconditionally.
func (c *Cache) AddKey(category types.LookupCategory, id string) {
	if id == "" {
		return
	}
	if _, ok := c.resolved[category][id]; ok {
		return
	}
	c.pending[category][id] = struct{}{}
}

func (c *Cache) AddTaxIncludedCodeKey(id string) { c.AddKey(types.LookupTaxIncludedCode, id) }
func (c *Cache) AddUnitTypeKey(id string)        { c.AddKey(types.LookupUnitType, id) }
func (c *Cache) AddSitusRuleKey(id string)       { c.AddKey(types.LookupSitusRule, id) }
func (c *Cache) AddTaxTypeKey(id string)         { c.AddKey(types.LookupTaxType, id) }
func (c *Cache) AddRegulatoryCodeKey(id string)  { c.AddKey(types.LookupRegulatoryCode, id) }
func (c *Cache) AddExemptionCodeKey(id string)   { c.AddKey(types.LookupExemptionCode, id) }
func (c *Cache) AddExemptionReasonKey(id string) { c.AddKey(types.LookupExemptionReason, id) }
func (c *Cache) AddCustomerTypeKey(id string)    { c.AddKey(types.LookupCustomerType, id) }
func (c *Cache) AddTransactionTypeKey(id string) { c.AddKey(types.LookupTransactionType, id) }

// Process resolves every registered key with one batch query per
// non-empty category.
func (c *Cache) Process(ctx context.Context) error {
	for _, category := range types.LookupCategories {
		pending := c.pending[category]
		if len(pending) == 0 {
			continue
		}

		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}

		codes, err := c.repo.ListByIDs(ctx, category, ids)
		if err != nil {
			return err
		}
		for _, code := range codes {
			c.resolved[category][code.ID] = code.Value
		}
		c.pending[category] = make(map[string]struct{})
	}
	return nil
}

// Cleanup discards all cached state. Required because the host may process
// multiple transactions in one execution context and stale reference-code
// values would leak between them.
func (c *Cache) Cleanup() {
	c.resolved = nil
	c.pending = nil
}

func (c *Cache) get(category types.LookupCategory, id string) string {
	if id == "" || c.resolved == nil {
		return ""
	}
	return c.resolved[category][id]
}

func (c *Cache) TaxIncludedCode(_ context.Context, id string) string {
	return c.get(types.LookupTaxIncludedCode, id)
}

func (c *Cache) UnitType(_ context.Context, id string) string {
	return c.get(types.LookupUnitType, id)
}

func (c *Cache) SitusRule(_ context.Context, id string) string {
	return c.get(types.LookupSitusRule, id)
}

func (c *Cache) TaxType(_ context.Context, id string) string {
	return c.get(types.LookupTaxType, id)
}

func (c *Cache) RegulatoryCode(_ context.Context, id string) string {
	return c.get(types.LookupRegulatoryCode, id)
}

func (c *Cache) ExemptionCode(_ context.Context, id string) string {
	return c.get(types.LookupExemptionCode, id)
}

func (c *Cache) ExemptionReason(_ context.Context, id string) string {
	return c.get(types.LookupExemptionReason, id)
}

func (c *Cache) CustomerType(_ context.Context, id string) string {
	return c.get(types.LookupCustomerType, id)
}

func (c *Cache) TransactionType(_ context.Context, id string) string {
	return c.get(types.LookupTransactionType, id)
}
