// Package hashes implements the shared-secret issuer and the domain hash
// scheme providers use to prove control of a domain.
//
// A hash is SHA256(domain + secret) prefixed with an issuer/version marker.
// Secrets are long, random, and single purpose, so the plain hash stands in
// for an HMAC; rotation is the sole revocation mechanism and verification
// never distinguishes "expired" from "wrong".
package hashes

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	domainname "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

// IssuerPrefix versions the hash format on the wire:
// GWF-01-<64 lowercase hex chars>.
const IssuerPrefix = "GWF-01"

// secretPrefix marks secret bodies so they are recognizable in admin
// tooling without revealing which provider they belong to.
const secretPrefix = "GWF-"

// Store is the persistence surface the issuer needs.
type Store interface {
	GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	GetSecret(ctx context.Context, providerID uuid.UUID) (*models.SharedSecret, error)
	DeleteSecret(ctx context.Context, providerID uuid.UUID) error
	CreateSecret(ctx context.Context, secret *models.SharedSecret) error
	CreateDomainHash(ctx context.Context, hash *models.DomainHash) error
}

// Transactor runs fn atomically. The SQL implementation wraps fn in a
// transaction carried through the context; the memory implementation just
// calls fn.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PassthroughTransactor satisfies Transactor without transactional
// guarantees. Suitable for the memory store, whose operations are
// individually atomic under its mutex.
type PassthroughTransactor struct{}

func (PassthroughTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service issues and verifies domain hashes.
type Service struct {
	store  Store
	tx     Transactor
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, tx Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("provider store is required")
	}
	if tx == nil {
		tx = PassthroughTransactor{}
	}
	svc := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RefreshSharedSecret discards any existing secret for the provider and
// issues a fresh one, returning the plaintext body exactly once. Old domain
// hashes become unverifiable immediately; there is no recovery path, so only
// the provider's authorized users may rotate.
// Delete and create run in one transaction so concurrent rotations cannot
// leave the provider secretless or double-secreted.
func (s *Service) RefreshSharedSecret(ctx context.Context, providerID uuid.UUID, user string) (string, error) {
	provider, err := s.store.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load provider")
	}
	if !slices.Contains(provider.AuthorizedUsers, user) {
		return "", dErrors.New(dErrors.CodePermissionDenied, "user is not authorized to manage this provider")
	}

	body, err := generateSecretBody()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate secret")
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteSecret(ctx, providerID); err != nil {
			return err
		}
		return s.store.CreateSecret(ctx, &models.SharedSecret{
			ProviderID: providerID,
			Body:       body,
			CreatedAt:  time.Now(),
		})
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "rotate shared secret")
	}

	s.logger.InfoContext(ctx, "shared secret rotated",
		"provider_id", providerID,
		"rotated_by", user,
	)
	return body, nil
}

func generateSecretBody() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return secretPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateDomainHash mints a hash binding domain to the provider under its
// current secret. The (provider, domain) pair is unique; repeat calls with
// an unchanged secret fail with a conflict.
func (s *Service) CreateDomainHash(ctx context.Context, providerID uuid.UUID, rawDomain, user string) (*models.DomainHash, error) {
	provider, err := s.store.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load provider")
	}
	if !slices.Contains(provider.AuthorizedUsers, user) {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "user is not authorized to manage this provider")
	}

	domain, err := domainname.Normalize(rawDomain)
	if err != nil {
		return nil, err
	}

	secret, err := s.store.GetSecret(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoSharedSecret, "provider has no shared secret, create one first")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load shared secret")
	}

	hash := &models.DomainHash{
		ID:         uuid.New(),
		ProviderID: providerID,
		Domain:     domain.String(),
		Hash:       ComputeHash(domain.String(), secret.Body),
		CreatedBy:  user,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateDomainHash(ctx, hash); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a domain hash for %s already exists", domain)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store domain hash")
	}

	s.logger.InfoContext(ctx, "domain hash created",
		"provider_id", providerID,
		"domain", domain,
		"created_by", user,
	)
	return hash, nil
}

// Verify recomputes the hash for domain under the provider's current secret
// and compares exactly. Rotated-away secrets simply fail; there is no
// partial credit.
func (s *Service) Verify(ctx context.Context, rawDomain, candidateHash string, providerID uuid.UUID) (bool, error) {
	domain, err := domainname.Normalize(rawDomain)
	if err != nil {
		return false, err
	}
	secret, err := s.store.GetSecret(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "load shared secret")
	}
	return ComputeHash(domain.String(), secret.Body) == candidateHash, nil
}

// ComputeHash derives the wire-format hash for a normalized domain and a
// secret body.
func ComputeHash(domain, secretBody string) string {
	sum := sha256.Sum256([]byte(domain + secretBody))
	return IssuerPrefix + "-" + hex.EncodeToString(sum[:])
}
