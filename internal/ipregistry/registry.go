// Package ipregistry matches IP addresses and origin ASNs against
// provider network registrations. It is the first evidentiary channel the
// checker consults: a hosted IP inside an active range or an active ASN
// greenlists the domain without touching carbon.txt.
package ipregistry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	greenmodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

// Store is the slice of the provider repository the registry reads.
type Store interface {
	ProviderForIP(ctx context.Context, ip netip.Addr) (*models.Provider, error)
	ProviderForASN(ctx context.Context, asn uint32) (*models.Provider, error)
}

// ASNLookup resolves the origin ASN announcing an IP address.
type ASNLookup interface {
	OriginASN(ctx context.Context, ip netip.Addr) (uint32, error)
}

// IPResolver resolves a domain's addresses. Satisfied by net.Resolver.
type IPResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Registry answers "which provider hosts this address" questions.
type Registry struct {
	store  Store
	asn    ASNLookup
	ips    IPResolver
	logger *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func New(store Store, asn ASNLookup, ips IPResolver, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("provider store is required")
	}
	r := &Registry{
		store:  store,
		asn:    asn,
		ips:    ips,
		logger: slog.Default(),
	}
	if r.ips == nil {
		r.ips = net.DefaultResolver
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Match is a positive registry hit.
type Match struct {
	Provider  *models.Provider
	IP        netip.Addr
	MatchedBy greenmodels.MatchType // MatchIP or MatchASN
}

// MatchIP returns the provider whose active range contains ip, or
// sentinel.ErrNotFound.
func (r *Registry) MatchIP(ctx context.Context, ip netip.Addr) (*models.Provider, error) {
	return r.store.ProviderForIP(ctx, ip)
}

// MatchASN returns the provider registered for asn, or sentinel.ErrNotFound.
func (r *Registry) MatchASN(ctx context.Context, asn uint32) (*models.Provider, error) {
	return r.store.ProviderForASN(ctx, asn)
}

// MatchDomain resolves the domain's A/AAAA records and consults the IP
// ranges first, then the origin ASN of the first address. A domain that
// does not resolve, or whose addresses match nothing, yields
// sentinel.ErrNotFound.
func (r *Registry) MatchDomain(ctx context.Context, domain string) (*Match, error) {
	addrs, err := r.ips.LookupNetIP(ctx, "ip", domain)
	if err != nil || len(addrs) == 0 {
		return nil, sentinel.ErrNotFound
	}

	for _, addr := range addrs {
		provider, err := r.MatchIP(ctx, addr)
		if err == nil {
			return &Match{Provider: provider, IP: addr, MatchedBy: greenmodels.MatchIP}, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
	}

	if r.asn == nil {
		return nil, sentinel.ErrNotFound
	}
	addr := addrs[0]
	asn, err := r.asn.OriginASN(ctx, addr)
	if err != nil {
		r.logger.DebugContext(ctx, "asn lookup failed", "ip", addr, "error", err)
		return nil, sentinel.ErrNotFound
	}
	provider, err := r.MatchASN(ctx, asn)
	if err != nil {
		return nil, err
	}
	return &Match{Provider: provider, IP: addr, MatchedBy: greenmodels.MatchASN}, nil
}

// TXTLookup is the DNS surface the origin-query ASN lookup needs.
type TXTLookup interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSASNLookup resolves origin ASNs through Team Cymru style
// origin.asn.cymru.com TXT queries: the reversed address is queried under
// the origin zone and the first field of the answer is the AS number.
type DNSASNLookup struct {
	dns     TXTLookup
	timeout time.Duration
}

func NewDNSASNLookup(dns TXTLookup, timeout time.Duration) *DNSASNLookup {
	if dns == nil {
		dns = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DNSASNLookup{dns: dns, timeout: timeout}
}

func (l *DNSASNLookup) OriginASN(ctx context.Context, ip netip.Addr) (uint32, error) {
	name, err := originQuery(ip)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	records, err := l.dns.LookupTXT(ctx, name)
	if err != nil {
		return 0, err
	}
	for _, record := range records {
		// "13335 | 104.16.0.0/13 | US | arin | 2014-03-28"
		first, _, _ := strings.Cut(record, "|")
		asn, err := strconv.ParseUint(strings.TrimSpace(first), 10, 32)
		if err != nil {
			continue
		}
		return uint32(asn), nil
	}
	return 0, sentinel.ErrNotFound
}

// originQuery builds the reversed-nibble query name for an address.
func originQuery(ip netip.Addr) (string, error) {
	if ip.Is4() {
		oct := ip.As4()
		return fmt.Sprintf("%d.%d.%d.%d.origin.asn.cymru.com", oct[3], oct[2], oct[1], oct[0]), nil
	}
	if ip.Is6() {
		raw := ip.As16()
		var sb strings.Builder
		for i := len(raw) - 1; i >= 0; i-- {
			sb.WriteString(fmt.Sprintf("%x.%x.", raw[i]&0xf, raw[i]>>4))
		}
		return sb.String() + "origin6.asn.cymru.com", nil
	}
	return "", fmt.Errorf("unsupported address: %s", ip)
}
