// Package claims lets a provider claim a domain it hosts by publishing
// its domain hash where the greencheck resolver can discover it: a DNS
// TXT record on the domain, or the Via header returned when fetching the
// domain's carbon.txt.
package claims

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
	greenmodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	domainname "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
)

// ProviderGetter resolves the claiming provider so the resulting cache
// entry carries its display fields.
type ProviderGetter interface {
	GetProvider(ctx context.Context, id uuid.UUID) (*providermodels.Provider, error)
}

// Service discovers and verifies claim proofs.
type Service struct {
	dns       carbontxt.DNSClient
	fetcher   carbontxt.Fetcher
	verifier  carbontxt.HashVerifier
	providers ProviderGetter
	cache     carbontxt.GreenCache
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(dns carbontxt.DNSClient, fetcher carbontxt.Fetcher, verifier carbontxt.HashVerifier, providers ProviderGetter, cache carbontxt.GreenCache, opts ...Option) (*Service, error) {
	if dns == nil || fetcher == nil || verifier == nil || providers == nil || cache == nil {
		return nil, fmt.Errorf("dns client, fetcher, verifier, provider getter, and cache are required")
	}
	s := &Service{
		dns:       dns,
		fetcher:   fetcher,
		verifier:  verifier,
		providers: providers,
		cache:     cache,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Claim is the outcome of a successful domain claim.
type Claim struct {
	Domain     string `json:"domain"`
	ProviderID string `json:"provider_id"`
	// Source records where the proof was discovered: "dns" or "header".
	Source string `json:"source"`
}

// ClaimViaCarbonTxt proves the provider controls rawDomain. Proof
// discovery checks DNS TXT records first, then the Via header of a GET on
// the domain's carbon.txt URL. Every discovered hash is verified against
// the claiming provider's current secret; the first one that verifies
// wins. Claiming is idempotent: re-claiming an already green domain
// upserts the same cache row.
func (s *Service) ClaimViaCarbonTxt(ctx context.Context, rawDomain string, providerID uuid.UUID) (*Claim, error) {
	domain, err := domainname.Normalize(rawDomain)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid domain")
	}

	provider, err := s.providers.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	candidates := s.discover(ctx, domain.String())
	if len(candidates) == 0 {
		return nil, dErrors.New(dErrors.CodeNoMatchingHash, "no domain hash published for domain")
	}

	for _, c := range candidates {
		ok, err := s.verifier.Verify(ctx, domain.String(), c.hash, providerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entry := &greenmodels.GreenDomain{
			Domain:          domain.String(),
			Green:           true,
			ProviderID:      provider.ID,
			ProviderName:    provider.Name,
			ProviderWebsite: provider.Website,
			MatchType:       greenmodels.MatchCarbonTxt,
		}
		if err := s.cache.Upsert(ctx, entry); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "domain claimed",
			"domain", domain.String(),
			"provider_id", provider.ID,
			"source", c.source,
		)
		return &Claim{
			Domain:     domain.String(),
			ProviderID: provider.ID.String(),
			Source:     c.source,
		}, nil
	}
	return nil, dErrors.New(dErrors.CodeNoMatchingHash, "published hash does not match provider's current secret")
}

type candidate struct {
	hash   string
	source string
}

// discover gathers hash candidates in discovery order. DNS failures and
// fetch failures are not claim errors, they just contribute nothing.
func (s *Service) discover(ctx context.Context, domain string) []candidate {
	var out []candidate

	records, err := s.dns.LookupTXT(ctx, domain)
	if err != nil {
		s.logger.DebugContext(ctx, "txt lookup failed during claim", "domain", domain, "error", err)
	}
	for _, record := range records {
		if hash, ok := hashFromTXT(record); ok {
			out = append(out, candidate{hash: hash, source: "dns"})
		}
	}

	result, err := s.fetcher.Fetch(ctx, "https://"+domain+"/carbon.txt")
	if err != nil {
		s.logger.DebugContext(ctx, "carbon.txt fetch failed during claim", "domain", domain, "error", err)
		return out
	}
	if hash, ok := hashFromVia(result.Via); ok {
		out = append(out, candidate{hash: hash, source: "header"})
	}
	return out
}

// hashFromTXT extracts the optional hash from a
// "carbon-txt=<url> <hash>" record.
func hashFromTXT(record string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(record), "carbon-txt=")
	if !ok {
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

// hashFromVia extracts the optional hash from a
// "<protocol> <url> <hash>" Via header.
func hashFromVia(via string) (string, bool) {
	fields := strings.Fields(via)
	if len(fields) < 3 {
		return "", false
	}
	if !strings.Contains(fields[1], "://") {
		return "", false
	}
	return fields[2], true
}
