package testutil

import (
	"context"
	"sync"

	"github.com/taxbridge/taxbridge/internal/domain/settings"
	ierr "github.com/taxbridge/taxbridge/internal/errors"
)

// InMemorySettingsStore implements settings.Repository.
type InMemorySettingsStore struct {
	mu        sync.RWMutex
	configs   map[string]*settings.Configuration
	overrides map[string]*settings.Override
}

func NewInMemorySettingsStore() *InMemorySettingsStore {
	return &InMemorySettingsStore{
		configs:   make(map[string]*settings.Configuration),
		overrides: make(map[string]*settings.Override),
	}
}

func overrideKey(kind settings.OverrideKind, entityID string) string {
	return string(kind) + ":" + entityID
}

func (s *InMemorySettingsStore) SetConfiguration(cfg *settings.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.Subsidiary] = cfg
}

func (s *InMemorySettingsStore) SetOverride(override *settings.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey(override.Kind, override.EntityID)] = override
}

func (s *InMemorySettingsStore) GetBySubsidiary(ctx context.Context, subsidiary string) (*settings.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, ok := s.configs[subsidiary]; ok {
		return cfg, nil
	}
	return nil, ierr.NewError("configuration not found").
		WithHintf("No configuration for subsidiary %s", subsidiary).
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySettingsStore) GetOverride(ctx context.Context, kind settings.OverrideKind, entityID string) (*settings.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if override, ok := s.overrides[overrideKey(kind, entityID)]; ok {
		return override, nil
	}
	return nil, ierr.NewError("override not found").
		WithHintf("No %s override for entity %s", kind, entityID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySettingsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = make(map[string]*settings.Configuration)
	s.overrides = make(map[string]*settings.Override)
}
