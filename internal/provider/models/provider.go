package models

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// Provider is a hosting organization attested as running on green energy.
// Only the fields the resolution and claim flows read live here; the full
// administrative record belongs to the admin portal.
type Provider struct {
	ID            uuid.UUID
	Name          string
	Website       string
	Archived      bool
	ShowOnWebsite bool
	// AuthorizedUsers holds the user IDs allowed to manage this provider
	// (rotate secrets, mint domain hashes, claim domains).
	AuthorizedUsers []string
}

// Domain returns the bare domain of the provider's website. Websites are
// stored either as bare domains or full URLs depending on import source.
func (p Provider) Domain() string {
	w := p.Website
	for _, prefix := range []string{"https://", "http://"} {
		if len(w) > len(prefix) && w[:len(prefix)] == prefix {
			w = w[len(prefix):]
			break
		}
	}
	for i := 0; i < len(w); i++ {
		if w[i] == '/' {
			return w[:i]
		}
	}
	return w
}

// IPRange is a provider-owned IPv4/IPv6 range. Inactive ranges never match.
type IPRange struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Start      netip.Addr
	End        netip.Addr
	Active     bool
}

// Contains reports whether ip falls inside the range (inclusive).
func (r IPRange) Contains(ip netip.Addr) bool {
	return r.Start.Compare(ip) <= 0 && r.End.Compare(ip) >= 0
}

// ASN is a provider-owned autonomous system number.
type ASN struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Number     uint32
	Active     bool
}

// SupportingDocument is a piece of sustainability evidence attached to a
// provider, typically projected from a carbon.txt manifest.
type SupportingDocument struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Title      string
	URL        string
	Public     bool
	ValidFrom  time.Time
	ValidTo    time.Time
}

// SharedSecret is the single live secret for a provider. The body must stay
// recoverable because domain hash verification recomputes
// SHA256(domain + body); rotation is the only revocation mechanism.
type SharedSecret struct {
	ProviderID uuid.UUID
	Body       string
	CreatedAt  time.Time
}

// DomainHash binds a domain to a provider through the secret that was live
// at creation time. Never mutated; becomes unverifiable when the secret
// rotates.
type DomainHash struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Domain     string
	Hash       string
	CreatedBy  string
	CreatedAt  time.Time
}
