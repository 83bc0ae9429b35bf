package carbontxt

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	greenmodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	domainname "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

var tracer = otel.Tracer("greencheck/carbontxt")

// txtMarker opens a DNS TXT delegation record:
// carbon-txt=<url> [<domain-hash>]
const txtMarker = "carbon-txt="

// ErrFileNotFound is returned when every delegation strategy is exhausted
// without producing a parseable manifest. The checker downgrades it to a
// grey result.
var ErrFileNotFound = dErrors.New(dErrors.CodeCarbonTxtNotFound, "no parseable carbon.txt found")

// state drives the delegation walk. The fallback order (DNS TXT, fetch,
// Via header, parse) is a first-class contract, not exception handling.
type state int

const (
	stateDNSCheck state = iota
	stateFetch
	stateHeaderCheck
	stateParse
	stateDone
	stateFailed
)

// Resolver walks DNS TXT records and HTTP Via headers to locate the
// authoritative carbon.txt for a domain, then parses it. All collaborators
// are injected so every hop is testable without a network.
type Resolver struct {
	dns      DNSClient
	fetcher  Fetcher
	verifier HashVerifier
	parser   *Parser
	cache    GreenCache
	maxHops  int
	logger   *slog.Logger
}

type ResolverOption func(*Resolver)

func WithMaxHops(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxHops = n
		}
	}
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(dns DNSClient, fetcher Fetcher, verifier HashVerifier, parser *Parser, cache GreenCache, opts ...ResolverOption) (*Resolver, error) {
	if dns == nil || fetcher == nil || parser == nil {
		return nil, errors.New("dns client, fetcher, and parser are required")
	}
	r := &Resolver{
		dns:      dns,
		fetcher:  fetcher,
		verifier: verifier,
		parser:   parser,
		cache:    cache,
		maxHops:  5,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// delegation is a parsed TXT record or Via header.
type delegation struct {
	url  string
	hash string
}

// walk carries the mutable state of one resolution.
type walk struct {
	originDomain  string
	currentURL    string
	sequence      []LookupEntry
	hops          int
	seenURLs      map[string]struct{}
	checkedDNSFor map[string]struct{}
	fetched       *FetchResult
	headerTried   bool
}

// Resolve runs the delegation state machine for a domain or URL and
// returns the terminal resolution including the complete lookup trace.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	origin, err := domainname.FromURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "carbontxt.Resolve")
	span.SetAttributes(attribute.String("domain", origin.String()))
	defer span.End()

	w := &walk{
		originDomain:  origin.String(),
		currentURL:    defaultManifestURL(origin.String()),
		seenURLs:      make(map[string]struct{}),
		checkedDNSFor: make(map[string]struct{}),
	}
	w.sequence = append(w.sequence, LookupEntry{Reason: ReasonInitial, URL: w.currentURL})
	w.seenURLs[w.currentURL] = struct{}{}

	st := stateDNSCheck
	for {
		switch st {
		case stateDNSCheck:
			st = r.stepDNSCheck(ctx, w)
		case stateFetch:
			st = r.stepFetch(ctx, w)
		case stateParse:
			manifest, next := r.stepParse(w)
			if next == stateDone {
				return r.finish(ctx, w, manifest)
			}
			st = next
		case stateHeaderCheck:
			st = r.stepHeaderCheck(ctx, w)
		case stateFailed:
			r.logger.InfoContext(ctx, "carbon.txt not found",
				"domain", w.originDomain,
				"hops", w.hops,
				"trace", w.sequence,
			)
			return nil, ErrFileNotFound
		}
	}
}

func defaultManifestURL(domain string) string {
	return "https://" + domain + "/carbon.txt"
}

// stepDNSCheck looks for a TXT delegation on the current candidate's
// domain. At most one DNS check per domain keeps delegation chains loop
// free.
func (r *Resolver) stepDNSCheck(ctx context.Context, w *walk) state {
	domain, err := domainname.FromURL(w.currentURL)
	if err != nil {
		return stateFetch
	}
	if _, done := w.checkedDNSFor[domain.String()]; done {
		return stateFetch
	}
	w.checkedDNSFor[domain.String()] = struct{}{}

	records, err := r.dns.LookupTXT(ctx, domain.String())
	if err != nil {
		// Timeout or NXDOMAIN both mean "no delegation at this hop".
		r.logger.DebugContext(ctx, "txt lookup failed", "domain", domain, "error", err)
		return stateFetch
	}
	for _, record := range records {
		rest, ok := strings.CutPrefix(strings.TrimSpace(record), txtMarker)
		if !ok {
			continue
		}
		d, ok := parseDelegation(rest)
		if !ok {
			continue
		}
		if r.follow(ctx, w, d, ReasonDNSDelegation) {
			return stateDNSCheck
		}
	}
	return stateFetch
}

func (r *Resolver) stepFetch(ctx context.Context, w *walk) state {
	result, err := r.fetcher.Fetch(ctx, w.currentURL)
	if err != nil {
		r.logger.DebugContext(ctx, "fetch failed", "url", w.currentURL, "error", err)
		w.fetched = nil
		// A fetch failure cannot yield a Via header, so header fallback
		// is exhausted for this candidate.
		return stateFailed
	}
	w.fetched = result
	w.headerTried = false
	return stateParse
}

func (r *Resolver) stepParse(w *walk) (*Manifest, state) {
	if w.fetched == nil || w.fetched.StatusCode >= 400 {
		return nil, stateHeaderCheck
	}
	manifest, err := DecodeManifest(string(w.fetched.Body))
	if err != nil {
		// Parse failure gets one retry through the Via header path.
		return nil, stateHeaderCheck
	}
	return manifest, stateDone
}

func (r *Resolver) stepHeaderCheck(ctx context.Context, w *walk) state {
	if w.fetched == nil || w.headerTried {
		return stateFailed
	}
	w.headerTried = true
	d, ok := parseViaHeader(w.fetched.Via)
	if !ok {
		return stateFailed
	}
	if r.follow(ctx, w, d, ReasonViaDelegation) {
		return stateFetch
	}
	return stateFailed
}

// follow advances to a delegate URL if it is new and within the hop
// budget, verifying any attached domain hash on the way.
func (r *Resolver) follow(ctx context.Context, w *walk, d delegation, reason string) bool {
	if _, seen := w.seenURLs[d.url]; seen {
		return false
	}
	if w.hops >= r.maxHops {
		r.logger.WarnContext(ctx, "delegation hop budget exhausted",
			"domain", w.originDomain,
			"max_hops", r.maxHops,
		)
		return false
	}
	if d.hash != "" {
		r.verifyAndAssociate(ctx, w, d)
	}
	w.currentURL = d.url
	w.seenURLs[d.url] = struct{}{}
	w.hops++
	w.sequence = append(w.sequence, LookupEntry{Reason: reason, URL: d.url})
	return true
}

// verifyAndAssociate checks the delegation hash against the delegate
// domain's provider. A verified hash greenlists the origin domain; a
// mismatch only skips the association, the delegation itself is still
// followed for manifest content.
func (r *Resolver) verifyAndAssociate(ctx context.Context, w *walk, d delegation) {
	if r.verifier == nil || r.cache == nil || r.parser == nil {
		return
	}
	delegateDomain, err := domainname.FromURL(d.url)
	if err != nil {
		return
	}
	provider, err := r.parser.directory.FindProviderByDomain(ctx, delegateDomain.String())
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "provider lookup failed during delegation", "domain", delegateDomain, "error", err)
		}
		return
	}
	ok, err := r.verifier.Verify(ctx, w.originDomain, d.hash, provider.ID)
	if err != nil || !ok {
		r.logger.InfoContext(ctx, "delegation hash rejected",
			"domain", w.originDomain,
			"delegate", delegateDomain,
			"provider_id", provider.ID,
		)
		return
	}
	entry := &greenmodels.GreenDomain{
		Domain:          w.originDomain,
		Green:           true,
		ProviderID:      provider.ID,
		ProviderName:    provider.Name,
		ProviderWebsite: provider.Website,
		MatchType:       greenmodels.MatchCarbonTxt,
	}
	if err := r.cache.Upsert(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "failed to cache delegation association", "domain", w.originDomain, "error", err)
	}
}

func (r *Resolver) finish(ctx context.Context, w *walk, manifest *Manifest) (*Resolution, error) {
	outcome, err := r.parser.resolveManifest(ctx, manifest)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Domain:         w.originDomain,
		FinalURL:       w.currentURL,
		Raw:            string(w.fetched.Body),
		Manifest:       manifest,
		Outcome:        outcome,
		LookupSequence: w.sequence,
	}, nil
}

// parseDelegation splits "<url> [<hash>]".
func parseDelegation(rest string) (delegation, bool) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return delegation{}, false
	}
	d := delegation{url: fields[0]}
	if !strings.Contains(d.url, "://") {
		d.url = "https://" + d.url
	}
	if len(fields) > 1 {
		d.hash = fields[1]
	}
	return d, true
}

// parseViaHeader splits "<protocol> <url> [<hash>]" per the delegation
// header contract. Proxies emit Via values without a URL; those are
// ignored.
func parseViaHeader(via string) (delegation, bool) {
	fields := strings.Fields(via)
	if len(fields) < 2 {
		return delegation{}, false
	}
	d := delegation{url: fields[1]}
	if !strings.Contains(d.url, "://") {
		return delegation{}, false
	}
	if len(fields) > 2 {
		d.hash = fields[2]
	}
	return d, true
}
