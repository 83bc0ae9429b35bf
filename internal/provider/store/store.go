package store

import (
	"context"
	"net/netip"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
)

// Store is the repository surface over provider data that the resolution
// and claim flows need. Relations are explicit methods returning concrete
// collections; nothing here defers query execution.
type Store interface {
	// Providers
	CreateProvider(ctx context.Context, provider *models.Provider) error
	GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	FindProviderByDomain(ctx context.Context, domain string) (*models.Provider, error)
	// ArchiveProvider marks the provider archived and deactivates all of
	// its IP ranges and ASNs in the same operation. Green cache rows are
	// removed by the caller in the same logical step.
	ArchiveProvider(ctx context.Context, id uuid.UUID) error

	// Network registrations
	AddIPRange(ctx context.Context, r *models.IPRange) error
	AddASN(ctx context.Context, a *models.ASN) error
	ActiveRangesFor(ctx context.Context, providerID uuid.UUID) ([]models.IPRange, error)
	ActiveASNsFor(ctx context.Context, providerID uuid.UUID) ([]models.ASN, error)
	ProviderForIP(ctx context.Context, ip netip.Addr) (*models.Provider, error)
	ProviderForASN(ctx context.Context, asn uint32) (*models.Provider, error)

	// Evidence
	CreateDocument(ctx context.Context, doc *models.SupportingDocument) error
	DocumentsFor(ctx context.Context, providerID uuid.UUID) ([]models.SupportingDocument, error)
	FindDocumentByURL(ctx context.Context, providerID uuid.UUID, url string) (*models.SupportingDocument, error)

	// Shared secrets (one live secret per provider)
	GetSecret(ctx context.Context, providerID uuid.UUID) (*models.SharedSecret, error)
	DeleteSecret(ctx context.Context, providerID uuid.UUID) error
	CreateSecret(ctx context.Context, secret *models.SharedSecret) error

	// Domain hashes (unique per provider+domain)
	CreateDomainHash(ctx context.Context, hash *models.DomainHash) error
	GetDomainHash(ctx context.Context, providerID uuid.UUID, domain string) (*models.DomainHash, error)
}
