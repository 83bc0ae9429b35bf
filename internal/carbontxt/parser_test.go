package carbontxt

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	greenstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/store"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	providerstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/store"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
)

const sampleManifest = `
[org]
credentials = [
    { domain = "greenhost.example.com", doctype = "sustainability-page", url = "https://greenhost.example.com/green" },
]

[upstream]
providers = [
    "upstream.example.net",
    { domain = "dc.example.org", aliases = ["www.dc.example.org", "dc.example.org"] },
]
`

type ParserSuite struct {
	suite.Suite
	providers *providerstore.Memory
	cache     *greenstore.Memory
	parser    *Parser
	ctx       context.Context
}

func (s *ParserSuite) SetupTest() {
	s.providers = providerstore.NewMemory()
	s.cache = greenstore.NewMemory(0)
	s.parser = NewParser(s.providers, s.cache, nil)
	s.ctx = context.Background()
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserSuite))
}

func (s *ParserSuite) registerProvider(domain string) *providermodels.Provider {
	provider := &providermodels.Provider{
		ID:            uuid.New(),
		Name:          domain,
		Website:       "https://" + domain,
		ShowOnWebsite: true,
	}
	s.Require().NoError(s.providers.CreateProvider(s.ctx, provider))
	return provider
}

// TestDecodeManifest verifies the TOML wire shape, including bare domain
// strings next to credential tables.
func (s *ParserSuite) TestDecodeManifest() {
	s.Run("decodes tables and strings", func() {
		manifest, err := DecodeManifest(sampleManifest)
		s.Require().NoError(err)

		s.Require().Len(manifest.Org, 1)
		s.Equal("greenhost.example.com", manifest.Org[0].Domain)
		s.Equal("sustainability-page", manifest.Org[0].DocType)
		s.Equal("https://greenhost.example.com/green", manifest.Org[0].URL)

		s.Require().Len(manifest.Upstream, 2)
		s.Equal("upstream.example.net", manifest.Upstream[0].Domain)
		s.Equal([]string{"www.dc.example.org", "dc.example.org"}, manifest.Upstream[1].Aliases)
	})

	s.Run("normalizes declared domains", func() {
		manifest, err := DecodeManifest(`
[org]
credentials = ["GreenHost.Example.COM."]
`)
		s.Require().NoError(err)
		s.Equal("greenhost.example.com", manifest.Org[0].Domain)
	})

	s.Run("rejects invalid toml", func() {
		_, err := DecodeManifest("[org\ncredentials = oops")
		s.Error(err)
	})

	s.Run("rejects entries without a domain", func() {
		_, err := DecodeManifest(`
[org]
credentials = [{ url = "https://example.com/green" }]
`)
		s.Error(err)
	})
}

// TestParseMatchesRegisteredProviders verifies read-only resolution against
// known providers.
func (s *ParserSuite) TestParseMatchesRegisteredProviders() {
	org := s.registerProvider("greenhost.example.com")
	upstream := s.registerProvider("upstream.example.net")

	outcome, err := s.parser.Parse(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)

	s.Require().NotNil(outcome.Org["greenhost.example.com"])
	s.Equal(org.ID, outcome.Org["greenhost.example.com"].ID)
	s.Require().NotNil(outcome.Upstream["upstream.example.net"])
	s.Equal(upstream.ID, outcome.Upstream["upstream.example.net"].ID)

	// dc.example.org is unknown and surfaced, not created.
	s.Nil(outcome.Upstream["dc.example.org"])
	s.Contains(outcome.NotRegistered.Providers, "dc.example.org")
}

// TestParseSurfacesUnknownProviders verifies nothing is created by the
// read-only path.
func (s *ParserSuite) TestParseSurfacesUnknownProviders() {
	outcome, err := s.parser.Parse(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)

	s.Nil(outcome.Org["greenhost.example.com"])
	s.Contains(outcome.NotRegistered.Providers, "greenhost.example.com")
	s.Contains(outcome.NotRegistered.Providers, "upstream.example.net")
	s.Zero(s.cache.Len())
}

// TestParseEvidence verifies evidence diffing by exact URL.
func (s *ParserSuite) TestParseEvidence() {
	provider := s.registerProvider("greenhost.example.com")

	outcome, err := s.parser.Parse(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)
	s.Require().Len(outcome.NotRegistered.Evidence, 1)
	s.Equal("https://greenhost.example.com/green", outcome.NotRegistered.Evidence[0].URL)

	s.Require().NoError(s.providers.CreateDocument(s.ctx, &providermodels.SupportingDocument{
		ProviderID: provider.ID,
		Title:      "sustainability-page",
		URL:        "https://greenhost.example.com/green",
	}))

	outcome, err = s.parser.Parse(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)
	s.Empty(outcome.NotRegistered.Evidence)
}

// TestParseCanonicalOrgDomain verifies only the first org credential's
// domain is honored for the org section.
func (s *ParserSuite) TestParseCanonicalOrgDomain() {
	s.registerProvider("greenhost.example.com")

	outcome, err := s.parser.Parse(s.ctx, "greenhost.example.com", `
[org]
credentials = [
    "greenhost.example.com",
    "other.example.com",
]
`)
	s.Require().NoError(err)
	s.Contains(outcome.Org, "greenhost.example.com")
	s.NotContains(outcome.Org, "other.example.com")
}

func (s *ParserSuite) TestParseRejectsInvalidManifest() {
	_, err := s.parser.Parse(s.ctx, "greenhost.example.com", "::::")
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

// TestImportCreatesProvidersAndGreenRows verifies the mutating path end to
// end: providers, green rows for domains and aliases, dedupe.
func (s *ParserSuite) TestImportCreatesProvidersAndGreenRows() {
	result, err := s.parser.ParseAndImport(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)
	s.Equal([]string{"greenhost.example.com"}, result.Org)
	s.Equal([]string{"upstream.example.net", "dc.example.org"}, result.Upstream)

	provider, err := s.providers.FindProviderByDomain(s.ctx, "greenhost.example.com")
	s.Require().NoError(err)

	entry, err := s.cache.Lookup(s.ctx, "greenhost.example.com")
	s.Require().NoError(err)
	s.True(entry.Green)
	s.Equal(provider.ID, entry.ProviderID)
	s.Equal("carbontxt", string(entry.MatchType))

	alias, err := s.cache.Lookup(s.ctx, "www.dc.example.org")
	s.Require().NoError(err)
	s.True(alias.Green)

	// Three declared domains plus one alias; the repeated alias did not
	// create an extra row.
	s.Equal(4, s.cache.Len())
}

// TestImportIsIdempotent verifies re-importing the same manifest creates no
// duplicate providers or evidence.
func (s *ParserSuite) TestImportIsIdempotent() {
	_, err := s.parser.ParseAndImport(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)
	_, err = s.parser.ParseAndImport(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)

	provider, err := s.providers.FindProviderByDomain(s.ctx, "greenhost.example.com")
	s.Require().NoError(err)

	docs, err := s.providers.DocumentsFor(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Len(docs, 1)
	s.Equal("https://greenhost.example.com/green", docs[0].URL)
	s.Equal(4, s.cache.Len())
}

// TestImportReusesExistingProviders verifies import never shadows an
// already registered provider.
func (s *ParserSuite) TestImportReusesExistingProviders() {
	existing := s.registerProvider("greenhost.example.com")

	_, err := s.parser.ParseAndImport(s.ctx, "greenhost.example.com", sampleManifest)
	s.Require().NoError(err)

	entry, err := s.cache.Lookup(s.ctx, "greenhost.example.com")
	s.Require().NoError(err)
	s.Equal(existing.ID, entry.ProviderID)

	docs, err := s.providers.DocumentsFor(s.ctx, existing.ID)
	s.Require().NoError(err)
	s.Len(docs, 1)
}
