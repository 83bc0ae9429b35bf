package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
)

// CheckService runs a greencheck for a domain or URL.
type CheckService interface {
	Check(ctx context.Context, rawURL string, skipCache bool) (models.SiteCheck, error)
}

type checkResponse struct {
	URL       string    `json:"url"`
	Domain    string    `json:"hosted_by_domain,omitempty"`
	Green     bool      `json:"green"`
	Provider  string    `json:"hosted_by_id,omitempty"`
	MatchType string    `json:"match_type"`
	Cached    bool      `json:"cached"`
	CheckedAt time.Time `json:"checked_at"`
	// LookupSequence is populated only when the caller asks for a trace.
	LookupSequence []carbontxt.LookupEntry `json:"lookup_sequence,omitempty"`
}

func checkResponseFrom(check models.SiteCheck) checkResponse {
	resp := checkResponse{
		URL:       check.URL,
		Domain:    check.Domain,
		Green:     check.Green,
		MatchType: string(check.MatchType),
		Cached:    check.Cached,
		CheckedAt: check.CheckedAt,
	}
	if check.Green {
		resp.Provider = check.ProviderID.String()
	}
	return resp
}

func (h *Handler) handleGreencheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	domain := chi.URLParam(r, "domain")
	if domain == "" {
		writeError(w, errBadRequest("domain is required"))
		return
	}
	skipCache := boolQuery(r, "skip_cache")

	check, err := h.checker.Check(ctx, domain, skipCache)
	if err != nil {
		h.logger.ErrorContext(ctx, "check failed", "domain", domain, "error", err)
		writeError(w, err)
		return
	}
	resp := checkResponseFrom(check)

	// trace=true re-walks the delegation chain for audit visibility. The
	// walk failing does not fail the check; the trace is just omitted.
	if boolQuery(r, "trace") {
		if resolution, err := h.resolver.Resolve(ctx, domain); err == nil && resolution != nil {
			resp.LookupSequence = resolution.LookupSequence
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
