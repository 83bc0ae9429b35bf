package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/claims"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

// HashService issues shared secrets and domain hashes.
type HashService interface {
	RefreshSharedSecret(ctx context.Context, providerID uuid.UUID, user string) (string, error)
	CreateDomainHash(ctx context.Context, providerID uuid.UUID, rawDomain, user string) (*providermodels.DomainHash, error)
}

// ClaimService claims domains through published proofs.
type ClaimService interface {
	ClaimViaCarbonTxt(ctx context.Context, rawDomain string, providerID uuid.UUID) (*claims.Claim, error)
}

// ProviderService handles provider lifecycle.
type ProviderService interface {
	Archive(ctx context.Context, id uuid.UUID) error
}

func errBadRequest(message string) error {
	return dErrors.New(dErrors.CodeBadRequest, message)
}

func providerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errBadRequest("invalid provider id")
	}
	return id, nil
}

// handleRefreshSecret rotates the provider's shared secret. The plaintext
// body appears in this response and nowhere else.
func (h *Handler) handleRefreshSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := providerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	secret, err := h.hashes.RefreshSharedSecret(ctx, id, requestcontext.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"shared_secret": secret})
}

type createHashRequest struct {
	Domain string `json:"domain"`
}

type hashResponse struct {
	Domain    string `json:"domain"`
	Hash      string `json:"hash"`
	CreatedBy string `json:"created_by"`
}

func (h *Handler) handleCreateDomainHash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := providerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest("invalid request body"))
		return
	}
	hash, err := h.hashes.CreateDomainHash(ctx, id, req.Domain, requestcontext.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hashResponse{
		Domain:    hash.Domain,
		Hash:      hash.Hash,
		CreatedBy: hash.CreatedBy,
	})
}

type claimRequest struct {
	Domain string `json:"domain"`
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := providerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest("invalid request body"))
		return
	}
	claim, err := h.claims.ClaimViaCarbonTxt(ctx, req.Domain, id)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ClaimsFailed.Inc()
		}
		writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ClaimsSucceeded.Inc()
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleArchiveProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := providerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.providers.Archive(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
