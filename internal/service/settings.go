package service

import (
	"context"

	"github.com/taxbridge/taxbridge/internal/cache"
	"github.com/taxbridge/taxbridge/internal/domain/settings"
	"github.com/taxbridge/taxbridge/internal/domain/taxmapping"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
)

// Hardcoded fallback codes used when neither the telecom nor the utility
// industry module is enabled. 99 is the generic unit type; 22 is the
// two-out-of-three situs rule.
const (
	fallbackUnitType  = "99"
	fallbackSitusRule = "22"
)

// SettingsService loads and caches subsidiary configuration and resolves
// effective default code values through the entity override layers.
type SettingsService interface {
	GetConfiguration(ctx context.Context, subsidiary string) (*settings.Configuration, error)
	EffectiveItemDefaults(ctx context.Context, cfg *settings.Configuration, itemID, categoryID, entityID string, isPurchase bool) settings.ChannelDefaults
	CurrencyCode(cfg *settings.Configuration, transactionCurrency string) string
	FallbackCodes(cfg *settings.Configuration) (unitType, situsRule string)
	TaxCategory(ctx context.Context, code string) *taxmapping.TaxCategory
}

type settingsService struct {
	ServiceParams
	cache cache.Cache
}

func NewSettingsService(params ServiceParams) SettingsService {
	return &settingsService{
		ServiceParams: params,
		cache:         cache.NewInMemoryCache(params.Config),
	}
}

// GetConfiguration loads the subsidiary configuration. A missing record is
// a hard precondition failure; no calculation can proceed without one.
func (s *settingsService) GetConfiguration(ctx context.Context, subsidiary string) (*settings.Configuration, error) {
	if subsidiary == "" {
		return nil, ierr.NewError("missing subsidiary").
			WithHint("The transaction has no subsidiary to load configuration for").
			Mark(ierr.ErrValidation)
	}

	cacheKey := cache.GenerateKey(cache.PrefixConfiguration, subsidiary)
	if cached, found := s.cache.Get(ctx, cacheKey); found {
		return cached.(*settings.Configuration), nil
	}

	cfg, err := s.SettingsRepo.GetBySubsidiary(ctx, subsidiary)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("No tax configuration exists for subsidiary %s", subsidiary).
				WithReportableDetails(map[string]any{
					"subsidiary": subsidiary,
				}).
				Mark(ierr.ErrConfiguration)
		}
		return nil, err
	}

	s.cache.Set(ctx, cacheKey, cfg, cache.DefaultExpiration)
	return cfg, nil
}

// EffectiveItemDefaults layers entity overrides onto the channel defaults,
// least specific first: entity (customer or vendor), then item category,
// then item. A populated override field wins over the layer below it.
func (s *settingsService) EffectiveItemDefaults(ctx context.Context, cfg *settings.Configuration, itemID, categoryID, entityID string, isPurchase bool) settings.ChannelDefaults {
	defaults := cfg.EcomDefaults

	entityKind := settings.OverrideCustomer
	if isPurchase {
		entityKind = settings.OverrideVendor
	}

	layers := []struct {
		kind settings.OverrideKind
		id   string
	}{
		{entityKind, entityID},
		{settings.OverrideCategory, categoryID},
		{settings.OverrideItem, itemID},
	}
	for _, layer := range layers {
		if layer.id == "" {
			continue
		}
		override, err := s.SettingsRepo.GetOverride(ctx, layer.kind, layer.id)
		if err != nil {
			if !ierr.IsNotFound(err) {
				s.Logger.Warnw("override lookup failed",
					"kind", layer.kind,
					"entity_id", layer.id,
					"error", err)
			}
			continue
		}
		applyOverride(&defaults, override)
	}

	return defaults
}

func applyOverride(defaults *settings.ChannelDefaults, override *settings.Override) {
	if override.SalesType != "" {
		defaults.SalesType = override.SalesType
	}
	if override.RegulatoryType != "" {
		defaults.RegulatoryType = override.RegulatoryType
	}
	if override.TaxExempt != "" {
		defaults.TaxExempt = override.TaxExempt
	}
	if override.UnitType != "" {
		defaults.UnitType = override.UnitType
	}
	if override.TaxIncluded != "" {
		defaults.TaxIncluded = override.TaxIncluded
	}
	if override.TaxSitus != "" {
		defaults.TaxSitus = override.TaxSitus
	}
	if override.TransactionType != "" {
		defaults.TransactionType = override.TransactionType
	}
	if override.ExemptReason != "" {
		defaults.ExemptReason = override.ExemptReason
	}
}

// CurrencyCode returns the code sent on every request line. Without the
// multi-currency feature the service always receives USD.
func (s *settingsService) CurrencyCode(cfg *settings.Configuration, transactionCurrency string) string {
	if cfg.Features.MultiCurrency && transactionCurrency != "" {
		return transactionCurrency
	}
	return "USD"
}

// FallbackCodes returns the unit-type and situs-rule values used when a
// line resolves neither a specific code nor a channel default.
func (s *settingsService) FallbackCodes(cfg *settings.Configuration) (string, string) {
	if !cfg.Industry.Telecom && !cfg.Industry.Utility {
		return fallbackUnitType, fallbackSitusRule
	}
	return "", ""
}

// TaxCategory resolves the reporting category for a category code, nil
// when none is configured. Misses are cached too.
func (s *settingsService) TaxCategory(ctx context.Context, code string) *taxmapping.TaxCategory {
	if code == "" {
		return nil
	}

	cacheKey := cache.GenerateKey(cache.PrefixTaxCategory, code)
	if cached, found := s.cache.Get(ctx, cacheKey); found {
		if cat, ok := cached.(*taxmapping.TaxCategory); ok {
			return cat
		}
		return nil
	}

	cat, err := s.TaxCategoryRepo.GetByCode(ctx, code)
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Warnw("tax category lookup failed",
				"category_code", code,
				"error", err)
			return nil
		}
		s.cache.Set(ctx, cacheKey, (*taxmapping.TaxCategory)(nil), cache.DefaultExpiration)
		return nil
	}

	s.cache.Set(ctx, cacheKey, cat, cache.DefaultExpiration)
	return cat
}
