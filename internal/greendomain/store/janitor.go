package store

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically evicts expired rows and rows pointing at archived
// or delisted providers, clearing badges for everything it removes. It is
// a safety net behind the lazy TTL check in Lookup, keeping the table from
// accumulating rows nobody asks about anymore.
type Janitor struct {
	store    Store
	badges   BadgeCache
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(store Store, badges BadgeCache, ttl, interval time.Duration, logger *slog.Logger) *Janitor {
	if badges == nil {
		badges = NoopBadgeCache{}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		store:    store,
		badges:   badges,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one eviction pass.
func (j *Janitor) Sweep(ctx context.Context) {
	expired, err := j.store.PurgeExpired(ctx, j.ttl)
	if err != nil {
		j.logger.WarnContext(ctx, "expired purge failed", "error", err)
	}
	archived, err := j.store.PurgeArchived(ctx)
	if err != nil {
		j.logger.WarnContext(ctx, "archived purge failed", "error", err)
	}

	purged := append(expired, archived...)
	if len(purged) == 0 {
		return
	}
	if err := j.badges.Clear(ctx, purged...); err != nil {
		j.logger.WarnContext(ctx, "badge clear failed after purge", "domains", len(purged), "error", err)
	}
	j.logger.InfoContext(ctx, "cache sweep complete",
		"expired", len(expired),
		"archived", len(archived),
	)
}
