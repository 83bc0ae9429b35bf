// Package checker orchestrates a full domain check: cache consultation,
// IP/ASN registry matching, and the carbon.txt delegation chain, in that
// order. Every completed check is logged asynchronously and, when a fresh
// resolution ran, written back to the cache whether green or grey.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/store"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/ipregistry"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/metrics"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	domainname "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

var tracer = otel.Tracer("greencheck/checker")

// Cache is the slice of the green domain store the checker touches.
type Cache interface {
	Lookup(ctx context.Context, domain string) (*models.GreenDomain, error)
	Upsert(ctx context.Context, entry *models.GreenDomain) error
	Invalidate(ctx context.Context, domain string) error
}

// Matcher answers network-registration questions for a domain.
type Matcher interface {
	MatchDomain(ctx context.Context, domain string) (*ipregistry.Match, error)
}

// ManifestResolver runs the carbon.txt delegation walk.
type ManifestResolver interface {
	Resolve(ctx context.Context, rawURL string) (*carbontxt.Resolution, error)
}

// CheckLogger records a completed check without blocking.
type CheckLogger interface {
	Log(ctx context.Context, check models.SiteCheck)
}

// NoopCheckLogger is used when the broker is not configured.
type NoopCheckLogger struct{}

func (NoopCheckLogger) Log(context.Context, models.SiteCheck) {}

// Checker runs the resolution chain.
type Checker struct {
	cache    Cache
	badges   store.BadgeCache
	registry Matcher
	resolver ManifestResolver
	checkLog CheckLogger
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Checker)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) { c.logger = logger }
}

func WithBadgeCache(badges store.BadgeCache) Option {
	return func(c *Checker) { c.badges = badges }
}

func WithCheckLogger(checkLog CheckLogger) Option {
	return func(c *Checker) { c.checkLog = checkLog }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

func New(cache Cache, registry Matcher, resolver ManifestResolver, opts ...Option) (*Checker, error) {
	if cache == nil || registry == nil || resolver == nil {
		return nil, fmt.Errorf("cache, registry, and resolver are required")
	}
	c := &Checker{
		cache:    cache,
		badges:   store.NoopBadgeCache{},
		registry: registry,
		resolver: resolver,
		checkLog: NoopCheckLogger{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Check resolves the green status of a URL or bare domain. It never
// returns an error for an unresolvable or unknown input; those are grey
// results. Errors are reserved for infrastructure failures the caller
// should surface as 5xx.
func (c *Checker) Check(ctx context.Context, rawURL string, skipCache bool) (models.SiteCheck, error) {
	ctx, span := tracer.Start(ctx, "checker.Check")
	defer span.End()

	now := requestcontext.Now(ctx)

	domain, err := domainname.FromURL(rawURL)
	if err != nil {
		c.logger.InfoContext(ctx, "unparseable check input", "input", rawURL, "error", err)
		check := models.Grey(rawURL, "", now)
		c.record(ctx, check)
		return check, nil
	}
	span.SetAttributes(attribute.String("domain", domain.String()))

	if skipCache {
		if err := c.cache.Invalidate(ctx, domain.String()); err != nil {
			return models.SiteCheck{}, err
		}
		if err := c.badges.Clear(ctx, domain.String()); err != nil {
			c.logger.WarnContext(ctx, "badge clear failed", "domain", domain, "error", err)
		}
	} else {
		entry, err := c.cache.Lookup(ctx, domain.String())
		switch {
		case err == nil:
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			check := models.FromCache(*entry, rawURL, now)
			c.record(ctx, check)
			return check, nil
		case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
			if c.metrics != nil {
				c.metrics.CacheMisses.Inc()
			}
		default:
			return models.SiteCheck{}, err
		}
	}

	check, entry := c.resolve(ctx, rawURL, domain.String(), now)

	if err := c.cache.Upsert(ctx, entry); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "domain", domain, "error", err)
	}
	c.record(ctx, check)
	return check, nil
}

// resolve runs the evidentiary chain: network registrations first, then
// the carbon.txt walk. Transient failures downgrade to grey. The returned
// entry is the cache row to upsert, grey results included.
func (c *Checker) resolve(ctx context.Context, rawURL, domain string, now time.Time) (models.SiteCheck, *models.GreenDomain) {
	match, err := c.registry.MatchDomain(ctx, domain)
	if err == nil {
		check, entry := greenResult(rawURL, domain, match.Provider, match.MatchedBy, now)
		check.IP = match.IP
		return check, entry
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.WarnContext(ctx, "registry match failed", "domain", domain, "error", err)
	}

	resolution, err := c.resolver.Resolve(ctx, rawURL)
	if err != nil {
		if !errors.Is(err, carbontxt.ErrFileNotFound) {
			c.logger.WarnContext(ctx, "carbon.txt resolution failed", "domain", domain, "error", err)
		}
		return greyResult(rawURL, domain, now)
	}
	if c.metrics != nil {
		c.metrics.ResolverHops.Observe(float64(len(resolution.LookupSequence) - 1))
	}

	if provider := registeredOrgProvider(resolution.Outcome); provider != nil {
		return greenResult(rawURL, domain, provider, models.MatchCarbonTxt, now)
	}

	// The walk may have greenlisted the domain through a verified
	// delegation hash even when the manifest names no registered org.
	if entry, err := c.cache.Lookup(ctx, domain); err == nil && entry.Green {
		return models.FromCache(*entry, rawURL, now), entry
	}
	return greyResult(rawURL, domain, now)
}

func (c *Checker) record(ctx context.Context, check models.SiteCheck) {
	if c.metrics != nil {
		c.metrics.ChecksTotal.WithLabelValues(boolLabel(check.Green), string(check.MatchType)).Inc()
	}
	c.checkLog.Log(ctx, check)
}

func greenResult(url, domain string, provider *providermodels.Provider, matchType models.MatchType, now time.Time) (models.SiteCheck, *models.GreenDomain) {
	check := models.SiteCheck{
		URL:        url,
		Domain:     domain,
		Green:      true,
		ProviderID: provider.ID,
		MatchType:  matchType,
		CheckedAt:  now,
	}
	entry := &models.GreenDomain{
		Domain:          domain,
		Green:           true,
		ProviderID:      provider.ID,
		ProviderName:    provider.Name,
		ProviderWebsite: provider.Website,
		MatchType:       matchType,
	}
	return check, entry
}

func greyResult(url, domain string, now time.Time) (models.SiteCheck, *models.GreenDomain) {
	check := models.Grey(url, domain, now)
	entry := &models.GreenDomain{
		Domain:    domain,
		Green:     false,
		MatchType: models.MatchNone,
	}
	return check, entry
}

// registeredOrgProvider picks the provider backing the manifest's org
// declarations, if any matched.
func registeredOrgProvider(outcome *carbontxt.ParseOutcome) *providermodels.Provider {
	if outcome == nil {
		return nil
	}
	for _, provider := range outcome.Org {
		if provider != nil {
			return provider
		}
	}
	return nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
