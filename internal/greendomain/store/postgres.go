package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "greencheck_cache_lookup_duration_ms",
	Help:    "Latency of green domain cache lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Postgres persists the green domain cache in PostgreSQL. Writes are single
// atomic upserts keyed by domain; concurrent resolutions of the same domain
// are last-write-wins at the row level.
type Postgres struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgres constructs a PostgreSQL-backed cache with the given retention
// window.
func NewPostgres(db *sql.DB, ttl time.Duration) *Postgres {
	return &Postgres{db: db, ttl: ttl}
}

func (s *Postgres) Lookup(ctx context.Context, domain string) (*models.GreenDomain, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	var entry models.GreenDomain
	var providerID uuid.NullUUID
	err := s.db.QueryRowContext(ctx, `
		SELECT domain, green, provider_id, provider_name, provider_website, match_type, modified_at
		FROM green_domains WHERE domain = $1
	`, domain).Scan(&entry.Domain, &entry.Green, &providerID,
		&entry.ProviderName, &entry.ProviderWebsite, &entry.MatchType, &entry.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lookup green domain: %w", err)
	}
	entry.ProviderID = providerID.UUID
	if s.ttl > 0 && entry.ModifiedAt.Before(requestcontext.Now(ctx).Add(-s.ttl)) {
		return nil, sentinel.ErrExpired
	}
	return &entry, nil
}

func (s *Postgres) Upsert(ctx context.Context, entry *models.GreenDomain) error {
	modifiedAt := entry.ModifiedAt
	if modifiedAt.IsZero() {
		modifiedAt = requestcontext.Now(ctx)
	}
	providerID := uuid.NullUUID{UUID: entry.ProviderID, Valid: entry.ProviderID != uuid.Nil}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO green_domains (domain, green, provider_id, provider_name, provider_website, match_type, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (domain) DO UPDATE SET
			green = EXCLUDED.green,
			provider_id = EXCLUDED.provider_id,
			provider_name = EXCLUDED.provider_name,
			provider_website = EXCLUDED.provider_website,
			match_type = EXCLUDED.match_type,
			modified_at = EXCLUDED.modified_at
	`, entry.Domain, entry.Green, providerID, entry.ProviderName,
		entry.ProviderWebsite, entry.MatchType, modifiedAt)
	if err != nil {
		return fmt.Errorf("upsert green domain: %w", err)
	}
	return nil
}

func (s *Postgres) Invalidate(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM green_domains WHERE domain = $1`, domain)
	if err != nil {
		return fmt.Errorf("invalidate green domain: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteByProvider(ctx context.Context, providerID uuid.UUID) ([]string, error) {
	return s.deleteReturning(ctx, `
		DELETE FROM green_domains WHERE provider_id = $1 RETURNING domain
	`, providerID)
}

func (s *Postgres) PurgeExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	cutoff := requestcontext.Now(ctx).Add(-ttl)
	return s.deleteReturning(ctx, `
		DELETE FROM green_domains WHERE modified_at < $1 RETURNING domain
	`, cutoff)
}

func (s *Postgres) PurgeArchived(ctx context.Context) ([]string, error) {
	return s.deleteReturning(ctx, `
		DELETE FROM green_domains g
		USING providers p
		WHERE g.provider_id = p.id AND (p.archived OR NOT p.show_on_website)
		RETURNING g.domain
	`)
}

func (s *Postgres) deleteReturning(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("purge green domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return domains, fmt.Errorf("scan purged domain: %w", err)
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

var _ Store = (*Postgres)(nil)
