package checker

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/carbontxt"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/store"
	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/ipregistry"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	providerstore "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/store"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

type fakeMatcher struct {
	match *ipregistry.Match
	err   error
}

func (f *fakeMatcher) MatchDomain(context.Context, string) (*ipregistry.Match, error) {
	return f.match, f.err
}

type fakeResolver struct {
	resolution *carbontxt.Resolution
	err        error
	calls      int
	// onResolve mimics resolver side effects, like the green cache write
	// a verified delegation hash performs mid-walk.
	onResolve func(ctx context.Context)
}

func (f *fakeResolver) Resolve(ctx context.Context, _ string) (*carbontxt.Resolution, error) {
	f.calls++
	if f.onResolve != nil {
		f.onResolve(ctx)
	}
	return f.resolution, f.err
}

type captureLog struct {
	checks []models.SiteCheck
}

func (c *captureLog) Log(_ context.Context, check models.SiteCheck) {
	c.checks = append(c.checks, check)
}

type recordingBadges struct {
	store.NoopBadgeCache
	cleared []string
}

func (r *recordingBadges) Clear(_ context.Context, domains ...string) error {
	r.cleared = append(r.cleared, domains...)
	return nil
}

type CheckerSuite struct {
	suite.Suite
	cache    *store.Memory
	matcher  *fakeMatcher
	resolver *fakeResolver
	checkLog *captureLog
	badges   *recordingBadges
	ctx      context.Context
}

func (s *CheckerSuite) SetupTest() {
	s.cache = store.NewMemory(time.Hour)
	s.matcher = &fakeMatcher{err: sentinel.ErrNotFound}
	s.resolver = &fakeResolver{err: carbontxt.ErrFileNotFound}
	s.checkLog = &captureLog{}
	s.badges = &recordingBadges{}
	s.ctx = context.Background()
}

func TestCheckerSuite(t *testing.T) {
	suite.Run(t, new(CheckerSuite))
}

func (s *CheckerSuite) newChecker() *Checker {
	c, err := New(s.cache, s.matcher, s.resolver,
		WithCheckLogger(s.checkLog),
		WithBadgeCache(s.badges),
	)
	s.Require().NoError(err)
	return c
}

func greenProvider() *providermodels.Provider {
	return &providermodels.Provider{
		ID:      uuid.New(),
		Name:    "Green Host",
		Website: "https://greenhost.example.com",
	}
}

func (s *CheckerSuite) TestRegistryMatchIsGreen() {
	provider := greenProvider()
	addr := netip.MustParseAddr("192.0.2.10")
	s.matcher.match = &ipregistry.Match{Provider: provider, IP: addr, MatchedBy: models.MatchIP}
	s.matcher.err = nil

	check, err := s.newChecker().Check(s.ctx, "https://example.com/about", false)
	s.Require().NoError(err)
	s.True(check.Green)
	s.Equal("example.com", check.Domain)
	s.Equal(provider.ID, check.ProviderID)
	s.Equal(models.MatchIP, check.MatchType)
	s.Equal(addr, check.IP)
	s.False(check.Cached)

	entry, err := s.cache.Lookup(s.ctx, "example.com")
	s.Require().NoError(err)
	s.Equal(provider.Name, entry.ProviderName, "cache rows carry display fields")

	s.Require().Len(s.checkLog.checks, 1)
	s.True(s.checkLog.checks[0].Green)
}

func (s *CheckerSuite) TestCarbonTxtMatchIsGreen() {
	provider := greenProvider()
	s.resolver.resolution = &carbontxt.Resolution{
		Domain:   "example.com",
		FinalURL: "https://example.com/carbon.txt",
		Outcome: &carbontxt.ParseOutcome{
			Org: map[string]*providermodels.Provider{"greenhost.example.com": provider},
		},
		LookupSequence: []carbontxt.LookupEntry{{}},
	}
	s.resolver.err = nil

	check, err := s.newChecker().Check(s.ctx, "example.com", false)
	s.Require().NoError(err)
	s.True(check.Green)
	s.Equal(models.MatchCarbonTxt, check.MatchType)
	s.Equal(provider.ID, check.ProviderID)
}

func (s *CheckerSuite) TestUnknownDomainIsGreyAndCached() {
	check, err := s.newChecker().Check(s.ctx, "example.com", false)
	s.Require().NoError(err)
	s.False(check.Green)
	s.Equal(models.MatchNone, check.MatchType)

	entry, err := s.cache.Lookup(s.ctx, "example.com")
	s.Require().NoError(err)
	s.False(entry.Green, "grey results are cached too")
	s.Require().Len(s.checkLog.checks, 1)
}

func (s *CheckerSuite) TestCacheHitSkipsResolution() {
	provider := greenProvider()
	s.Require().NoError(s.cache.Upsert(s.ctx, &models.GreenDomain{
		Domain:     "example.com",
		Green:      true,
		ProviderID: provider.ID,
		MatchType:  models.MatchASN,
	}))

	check, err := s.newChecker().Check(s.ctx, "example.com", false)
	s.Require().NoError(err)
	s.True(check.Green)
	s.True(check.Cached)
	s.Equal(models.MatchASN, check.MatchType)
	s.Zero(s.resolver.calls, "cache hit must not trigger a resolve")
}

func (s *CheckerSuite) TestSkipCacheForcesResolution() {
	s.Require().NoError(s.cache.Upsert(s.ctx, &models.GreenDomain{
		Domain: "example.com",
		Green:  true,
	}))
	provider := greenProvider()
	s.matcher.match = &ipregistry.Match{Provider: provider, MatchedBy: models.MatchIP}
	s.matcher.err = nil

	check, err := s.newChecker().Check(s.ctx, "example.com", true)
	s.Require().NoError(err)
	s.True(check.Green)
	s.False(check.Cached)
	s.Equal(provider.ID, check.ProviderID)
	s.Equal([]string{"example.com"}, s.badges.cleared, "skip-cache evicts the rendered badge")
}

func (s *CheckerSuite) TestExpiredCacheEntryReResolves() {
	written := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.cache.Upsert(requestcontext.WithTime(s.ctx, written), &models.GreenDomain{
		Domain: "example.com",
		Green:  true,
	}))

	at := requestcontext.WithTime(s.ctx, written.Add(2*time.Hour))
	check, err := s.newChecker().Check(at, "example.com", false)
	s.Require().NoError(err)
	s.False(check.Cached)
	s.Equal(1, s.resolver.calls)
}

func (s *CheckerSuite) TestUnparseableInputIsGreyNotCached() {
	check, err := s.newChecker().Check(s.ctx, "not a url at all", false)
	s.Require().NoError(err)
	s.False(check.Green)
	s.Empty(check.Domain)
	s.Zero(s.cache.Len(), "garbage input never lands in the cache")
	s.Require().Len(s.checkLog.checks, 1, "but it is still logged")
}

func (s *CheckerSuite) TestResolverFailureDowngradesToGrey() {
	s.resolver.err = errors.New("dial tcp: connection refused")

	check, err := s.newChecker().Check(s.ctx, "example.com", false)
	s.Require().NoError(err)
	s.False(check.Green)

	entry, err := s.cache.Lookup(s.ctx, "example.com")
	s.Require().NoError(err)
	s.False(entry.Green)
}

// TestImportedManifestIsGreenFromCache runs the real parser and the real
// memory cache end to end: importing a manifest must make subsequent checks
// green without consulting the registry or walking the chain again.
func (s *CheckerSuite) TestImportedManifestIsGreenFromCache() {
	providers := providerstore.NewMemory()
	parser := carbontxt.NewParser(providers, s.cache, nil)

	manifest := `[org]
credentials = [
    { domain = "example.com", doctype = "sustainability-page", url = "https://example.com/green" },
]

[upstream]
providers = ["greenhost.example.com"]
`
	result, err := parser.ParseAndImport(s.ctx, "example.com", manifest)
	s.Require().NoError(err)
	s.Equal([]string{"example.com"}, result.Org)

	check, err := s.newChecker().Check(s.ctx, "https://example.com/page", false)
	s.Require().NoError(err)
	s.True(check.Green)
	s.True(check.Cached, "imported domains answer straight from the cache")
	s.Equal(models.MatchCarbonTxt, check.MatchType)
	s.NotEqual(uuid.Nil, check.ProviderID)
	s.Zero(s.resolver.calls, "no delegation walk for an imported domain")

	s.Run("upstream declarations are green too", func() {
		check, err := s.newChecker().Check(s.ctx, "greenhost.example.com", false)
		s.Require().NoError(err)
		s.True(check.Green)
		s.True(check.Cached)
	})
}

func (s *CheckerSuite) TestDelegationHashGreenWithoutOrgMatch() {
	// The resolver has already upserted the origin via a verified
	// delegation hash; the manifest itself names no registered org.
	provider := greenProvider()
	s.resolver.resolution = &carbontxt.Resolution{
		Domain:         "example.com",
		FinalURL:       "https://managed.example.net/carbon.txt",
		Outcome:        &carbontxt.ParseOutcome{},
		LookupSequence: []carbontxt.LookupEntry{{}, {}},
	}
	s.resolver.err = nil
	s.resolver.onResolve = func(ctx context.Context) {
		s.Require().NoError(s.cache.Upsert(ctx, &models.GreenDomain{
			Domain:     "example.com",
			Green:      true,
			ProviderID: provider.ID,
			MatchType:  models.MatchCarbonTxt,
		}))
	}

	check, err := s.newChecker().Check(s.ctx, "example.com", true)
	s.Require().NoError(err)
	s.True(check.Green)
	s.Equal(models.MatchCarbonTxt, check.MatchType)
	s.Equal(provider.ID, check.ProviderID)
}
