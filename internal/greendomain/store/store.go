package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
)

// Store is the green domain cache: one row per domain, upsert semantics,
// explicit invalidation. It is consulted before resolution and written
// after; it is never the source of truth.
type Store interface {
	// Lookup returns the cache row for domain. Rows older than the
	// configured TTL surface as sentinel.ErrExpired so callers re-resolve
	// instead of trusting stale state; missing rows surface as
	// sentinel.ErrNotFound.
	Lookup(ctx context.Context, domain string) (*models.GreenDomain, error)
	// Upsert writes the row for entry.Domain, overwriting any prior match
	// data unconditionally. The most recent explicit resolution wins.
	Upsert(ctx context.Context, entry *models.GreenDomain) error
	// Invalidate removes the row so the next lookup forces resolution.
	Invalidate(ctx context.Context, domain string) error
	// DeleteByProvider removes all rows pointing at the provider and
	// returns the affected domains so badge caches can be cleared in the
	// same logical operation.
	DeleteByProvider(ctx context.Context, providerID uuid.UUID) ([]string, error)
	// PurgeExpired removes rows older than ttl and returns their domains.
	PurgeExpired(ctx context.Context, ttl time.Duration) ([]string, error)
	// PurgeArchived removes rows whose provider is archived or delisted
	// and returns their domains.
	PurgeArchived(ctx context.Context) ([]string, error)
}

// BadgeCache clears derived badge images for domains whose green status
// changed. Implementations must tolerate unknown domains.
type BadgeCache interface {
	Clear(ctx context.Context, domains ...string) error
}

// NoopBadgeCache is used when Redis is not configured and in tests that do
// not exercise badges.
type NoopBadgeCache struct{}

func (NoopBadgeCache) Clear(context.Context, ...string) error { return nil }

// DelistedFn reports whether a provider should no longer appear in the
// cache (archived or removed from the public listing). The memory store
// uses it for PurgeArchived; the SQL store answers with a join instead.
type DelistedFn func(ctx context.Context, providerID uuid.UUID) (bool, error)
