package settings

import (
	"context"
)

// Repository loads subsidiary configuration and entity override layers.
type Repository interface {
	// GetBySubsidiary returns the configuration record for a subsidiary.
	// A missing record is an ErrNotFound; callers treat it as a hard
	// configuration precondition.
	GetBySubsidiary(ctx context.Context, subsidiary string) (*Configuration, error)
	// GetOverride returns the entity-specific defaults, ErrNotFound when
	// the entity has no override row.
	GetOverride(ctx context.Context, kind OverrideKind, entityID string) (*Override, error)
}
