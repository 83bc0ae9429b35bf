package carbontxt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	greenmodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	domainname "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

// rawManifest matches the TOML wire shape. Entries are decoded as `any`
// because the format permits bare domain strings alongside credential
// tables.
type rawManifest struct {
	Org struct {
		Credentials []any `toml:"credentials"`
	} `toml:"org"`
	Upstream struct {
		Providers []any `toml:"providers"`
	} `toml:"upstream"`
}

// Parser turns manifest text into provider matches. Parse is read-only;
// ParseAndImport is the one mutating path that creates providers from
// manifest content.
type Parser struct {
	directory Directory
	cache     GreenCache
	logger    *slog.Logger
}

func NewParser(directory Directory, cache GreenCache, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{directory: directory, cache: cache, logger: logger}
}

// DecodeManifest decodes and normalizes manifest text without touching any
// store.
func DecodeManifest(text string) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	manifest := &Manifest{}
	for _, entry := range raw.Org.Credentials {
		cred, err := credentialFromAny(entry)
		if err != nil {
			return nil, err
		}
		manifest.Org = append(manifest.Org, cred)
	}
	for _, entry := range raw.Upstream.Providers {
		cred, err := credentialFromAny(entry)
		if err != nil {
			return nil, err
		}
		manifest.Upstream = append(manifest.Upstream, cred)
	}
	return manifest, nil
}

func credentialFromAny(entry any) (Credential, error) {
	switch v := entry.(type) {
	case string:
		domain, err := domainname.Normalize(v)
		if err != nil {
			return Credential{}, err
		}
		return Credential{Domain: domain.String()}, nil
	case map[string]any:
		var cred Credential
		if s, ok := v["domain"].(string); ok {
			domain, err := domainname.Normalize(s)
			if err != nil {
				return Credential{}, err
			}
			cred.Domain = domain.String()
		}
		if s, ok := v["doctype"].(string); ok {
			cred.DocType = s
		}
		if s, ok := v["url"].(string); ok {
			cred.URL = s
		}
		if aliases, ok := v["aliases"].([]any); ok {
			for _, alias := range aliases {
				if s, ok := alias.(string); ok {
					if domain, err := domainname.Normalize(s); err == nil {
						cred.Aliases = append(cred.Aliases, domain.String())
					}
				}
			}
		}
		if cred.Domain == "" {
			return Credential{}, dErrors.New(dErrors.CodeBadRequest, "manifest entry is missing a domain")
		}
		return cred, nil
	default:
		return Credential{}, dErrors.Newf(dErrors.CodeBadRequest, "manifest entry has unsupported type %T", entry)
	}
}

// Parse resolves manifest declarations against known providers without
// writing anything. Declarations that match nothing are surfaced under
// NotRegistered for the caller (typically a preview UI) to act on.
func (p *Parser) Parse(ctx context.Context, domain, text string) (*ParseOutcome, error) {
	manifest, err := DecodeManifest(text)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid carbon.txt manifest")
	}
	return p.resolveManifest(ctx, manifest)
}

func (p *Parser) resolveManifest(ctx context.Context, manifest *Manifest) (*ParseOutcome, error) {
	outcome := &ParseOutcome{
		Org:      make(map[string]*providermodels.Provider),
		Upstream: make(map[string]*providermodels.Provider),
		NotRegistered: NotRegistered{
			Providers: make(map[string]Credential),
		},
	}

	// The first credential's domain is canonical for the org section;
	// multiple credentials for that domain are allowed, others ignored.
	var canonical string
	if len(manifest.Org) > 0 {
		canonical = manifest.Org[0].Domain
	}
	for _, cred := range manifest.Org {
		if cred.Domain != canonical {
			continue
		}
		if err := p.resolveEntry(ctx, cred, outcome.Org, outcome); err != nil {
			return nil, err
		}
	}
	for _, cred := range manifest.Upstream {
		if err := p.resolveEntry(ctx, cred, outcome.Upstream, outcome); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (p *Parser) resolveEntry(ctx context.Context, cred Credential, section map[string]*providermodels.Provider, outcome *ParseOutcome) error {
	provider, err := p.directory.FindProviderByDomain(ctx, cred.Domain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			section[cred.Domain] = nil
			outcome.NotRegistered.Providers[cred.Domain] = cred
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up provider by domain")
	}
	section[cred.Domain] = provider

	if cred.URL == "" {
		return nil
	}
	docs, err := p.directory.DocumentsFor(ctx, provider.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load provider evidence")
	}
	// Evidence is compared by URL with exact string equality; unmatched
	// declarations are surfaced, not auto-added.
	known := false
	for _, doc := range docs {
		if doc.URL == cred.URL {
			known = true
			break
		}
	}
	if !known {
		outcome.NotRegistered.Evidence = append(outcome.NotRegistered.Evidence, cred)
	}
	return nil
}

// ParseAndImport creates providers, green domain rows (including declared
// aliases), and evidence documents for every declared entry. This is the
// only path through which manifest content creates database rows.
func (p *Parser) ParseAndImport(ctx context.Context, domain, text string) (*ImportResult, error) {
	manifest, err := DecodeManifest(text)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid carbon.txt manifest")
	}

	result := &ImportResult{}
	for _, cred := range manifest.Org {
		if err := p.importEntry(ctx, cred); err != nil {
			return nil, err
		}
		result.Org = append(result.Org, cred.Domain)
	}
	for _, cred := range manifest.Upstream {
		if err := p.importEntry(ctx, cred); err != nil {
			return nil, err
		}
		result.Upstream = append(result.Upstream, cred.Domain)
	}
	return result, nil
}

func (p *Parser) importEntry(ctx context.Context, cred Credential) error {
	provider, err := p.directory.FindProviderByDomain(ctx, cred.Domain)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "look up provider by domain")
		}
		provider = &providermodels.Provider{
			ID:            uuid.New(),
			Name:          cred.Domain,
			Website:       cred.Domain,
			ShowOnWebsite: true,
		}
		if err := p.directory.CreateProvider(ctx, provider); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create provider from manifest")
		}
		p.logger.InfoContext(ctx, "provider created from manifest", "domain", cred.Domain)
	}

	for _, domain := range dedupe(append([]string{cred.Domain}, cred.Aliases...)) {
		entry := &greenmodels.GreenDomain{
			Domain:          domain,
			Green:           true,
			ProviderID:      provider.ID,
			ProviderName:    provider.Name,
			ProviderWebsite: provider.Website,
			MatchType:       greenmodels.MatchCarbonTxt,
		}
		if err := p.cache.Upsert(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "cache imported domain")
		}
	}

	if cred.URL == "" {
		return nil
	}
	if _, err := p.directory.FindDocumentByURL(ctx, provider.ID, cred.URL); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up evidence by url")
	}
	doc := &providermodels.SupportingDocument{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Title:      cred.DocType,
		URL:        cred.URL,
		Public:     true,
		ValidFrom:  time.Now(),
		ValidTo:    time.Now().AddDate(1, 0, 0),
	}
	if err := p.directory.CreateDocument(ctx, doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create evidence from manifest")
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
