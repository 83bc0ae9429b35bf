// Package service coordinates provider lifecycle operations that span the
// provider store and the green domain cache.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	greenstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/store"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/store"
)

// GreenCache is the slice of the green domain cache archiving touches.
type GreenCache interface {
	DeleteByProvider(ctx context.Context, providerID uuid.UUID) ([]string, error)
}

// Service wraps the provider store with cross-store coordination.
type Service struct {
	store  store.Store
	cache  GreenCache
	badges greenstore.BadgeCache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithBadgeCache(badges greenstore.BadgeCache) Option {
	return func(s *Service) { s.badges = badges }
}

func New(providerStore store.Store, cache GreenCache, opts ...Option) (*Service, error) {
	if providerStore == nil || cache == nil {
		return nil, fmt.Errorf("provider store and green cache are required")
	}
	s := &Service{
		store:  providerStore,
		cache:  cache,
		badges: greenstore.NoopBadgeCache{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Archive retires a provider: the store deactivates its network
// registrations, then every cached green domain pointing at it is removed
// and the corresponding badges cleared. Checks for those domains resolve
// fresh on the next request.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ArchiveProvider(ctx, id); err != nil {
		return err
	}
	domains, err := s.cache.DeleteByProvider(ctx, id)
	if err != nil {
		return fmt.Errorf("evict cached domains: %w", err)
	}
	if len(domains) > 0 {
		if err := s.badges.Clear(ctx, domains...); err != nil {
			s.logger.WarnContext(ctx, "badge clear failed after archive",
				"provider_id", id,
				"domains", len(domains),
				"error", err,
			)
		}
	}
	s.logger.InfoContext(ctx, "provider archived",
		"provider_id", id,
		"evicted_domains", len(domains),
	)
	return nil
}

// Get returns a provider by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return s.store.GetProvider(ctx, id)
}
