package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
)

// ManifestService parses and imports carbon.txt manifests.
type ManifestService interface {
	Parse(ctx context.Context, domain, text string) (*carbontxt.ParseOutcome, error)
	ParseAndImport(ctx context.Context, domain, text string) (*carbontxt.ImportResult, error)
}

// ResolveService walks the delegation chain for a domain.
type ResolveService interface {
	Resolve(ctx context.Context, rawURL string) (*carbontxt.Resolution, error)
}

type manifestRequest struct {
	Domain string `json:"domain"`
	// Content is the raw manifest text. When empty, parse requests resolve
	// the domain's carbon.txt over the network instead.
	Content string `json:"content"`
}

type resolveResponse struct {
	Domain         string                  `json:"domain"`
	FinalURL       string                  `json:"final_url"`
	Outcome        *carbontxt.ParseOutcome `json:"outcome"`
	LookupSequence []carbontxt.LookupEntry `json:"lookup_sequence"`
}

// handleParseManifest is the read-only preview: nothing is created, the
// response reports what would match and what is not registered.
func (h *Handler) handleParseManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req manifestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest("invalid request body"))
		return
	}
	if req.Domain == "" {
		writeError(w, errBadRequest("domain is required"))
		return
	}

	if req.Content == "" {
		resolution, err := h.resolver.Resolve(ctx, req.Domain)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolveResponse{
			Domain:         resolution.Domain,
			FinalURL:       resolution.FinalURL,
			Outcome:        resolution.Outcome,
			LookupSequence: resolution.LookupSequence,
		})
		return
	}

	outcome, err := h.manifests.Parse(ctx, req.Domain, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleImportManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req manifestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest("invalid request body"))
		return
	}
	if req.Domain == "" || req.Content == "" {
		writeError(w, errBadRequest("domain and content are required"))
		return
	}
	result, err := h.manifests.ParseAndImport(ctx, req.Domain, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DomainsImported.Add(float64(len(result.Org) + len(result.Upstream)))
	}
	writeJSON(w, http.StatusCreated, result)
}
