package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/metrics"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/middleware"
)

// HealthChecker reports backing-store health for the readiness endpoint.
type HealthChecker func(ctx context.Context) error

// Handler aggregates the services behind the HTTP surface.
type Handler struct {
	checker   CheckService
	hashes    HashService
	claims    ClaimService
	providers ProviderService
	manifests ManifestService
	resolver  ResolveService
	health    []HealthChecker

	validator middleware.JWTValidator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type HandlerOption func(*Handler)

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

func WithHealthChecks(checks ...HealthChecker) HandlerOption {
	return func(h *Handler) { h.health = checks }
}

func NewHandler(
	checker CheckService,
	hashes HashService,
	claimSvc ClaimService,
	providers ProviderService,
	manifests ManifestService,
	resolver ResolveService,
	validator middleware.JWTValidator,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		checker:   checker,
		hashes:    hashes,
		claims:    claimSvc,
		providers: providers,
		manifests: manifests,
		resolver:  resolver,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi route tree. The public greencheck endpoint is
// unauthenticated; everything that mutates provider state requires a
// valid bearer token.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v3", func(r chi.Router) {
		r.Get("/greencheck/{domain}", latency(h.metrics, "greencheck", h.handleGreencheck))
		r.Post("/carbon-txt/parse", latency(h.metrics, "carbontxt_parse", h.handleParseManifest))

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/providers/{id}/secret", latency(h.metrics, "refresh_secret", h.handleRefreshSecret))
			r.Post("/providers/{id}/domain-hashes", latency(h.metrics, "create_domain_hash", h.handleCreateDomainHash))
			r.Post("/providers/{id}/claims", latency(h.metrics, "claim_domain", h.handleClaim))
			r.Delete("/providers/{id}", latency(h.metrics, "archive_provider", h.handleArchiveProvider))
			r.Post("/carbon-txt/import", latency(h.metrics, "carbontxt_import", h.handleImportManifest))
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
