package store

import (
	"context"
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newProvider(website string) *models.Provider {
	provider := &models.Provider{
		ID:            uuid.New(),
		Name:          "Green Host",
		Website:       website,
		ShowOnWebsite: true,
	}
	s.Require().NoError(s.store.CreateProvider(s.ctx, provider))
	return provider
}

func (s *MemoryStoreSuite) TestProviderLifecycle() {
	provider := s.newProvider("https://greenhost.example.com")

	got, err := s.store.GetProvider(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Equal(provider.Name, got.Name)

	s.Run("find by website domain", func() {
		got, err := s.store.FindProviderByDomain(s.ctx, "greenhost.example.com")
		s.Require().NoError(err)
		s.Equal(provider.ID, got.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.GetProvider(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown domain", func() {
		_, err := s.store.FindProviderByDomain(s.ctx, "nowhere.example")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestArchiveDeactivatesRegistrations() {
	provider := s.newProvider("https://greenhost.example.com")
	s.Require().NoError(s.store.AddIPRange(s.ctx, &models.IPRange{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Start:      netip.MustParseAddr("192.0.2.0"),
		End:        netip.MustParseAddr("192.0.2.255"),
		Active:     true,
	}))
	s.Require().NoError(s.store.AddASN(s.ctx, &models.ASN{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Number:     64500,
		Active:     true,
	}))

	s.Require().NoError(s.store.ArchiveProvider(s.ctx, provider.ID))

	got, err := s.store.GetProvider(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.True(got.Archived)

	ranges, err := s.store.ActiveRangesFor(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Empty(ranges)

	asns, err := s.store.ActiveASNsFor(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Empty(asns)

	_, err = s.store.ProviderForIP(s.ctx, netip.MustParseAddr("192.0.2.10"))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.ProviderForASN(s.ctx, 64500)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestProviderForIP() {
	provider := s.newProvider("https://greenhost.example.com")
	s.Require().NoError(s.store.AddIPRange(s.ctx, &models.IPRange{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Start:      netip.MustParseAddr("192.0.2.0"),
		End:        netip.MustParseAddr("192.0.2.255"),
		Active:     true,
	}))
	s.Require().NoError(s.store.AddIPRange(s.ctx, &models.IPRange{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Start:      netip.MustParseAddr("198.51.100.0"),
		End:        netip.MustParseAddr("198.51.100.255"),
		Active:     false,
	}))

	s.Run("inside an active range", func() {
		got, err := s.store.ProviderForIP(s.ctx, netip.MustParseAddr("192.0.2.128"))
		s.Require().NoError(err)
		s.Equal(provider.ID, got.ID)
	})

	s.Run("range bounds are inclusive", func() {
		for _, ip := range []string{"192.0.2.0", "192.0.2.255"} {
			_, err := s.store.ProviderForIP(s.ctx, netip.MustParseAddr(ip))
			s.NoError(err, ip)
		}
	})

	s.Run("inactive range never matches", func() {
		_, err := s.store.ProviderForIP(s.ctx, netip.MustParseAddr("198.51.100.10"))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("outside all ranges", func() {
		_, err := s.store.ProviderForIP(s.ctx, netip.MustParseAddr("203.0.113.1"))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestProviderForASN() {
	provider := s.newProvider("https://greenhost.example.com")
	s.Require().NoError(s.store.AddASN(s.ctx, &models.ASN{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Number:     64500,
		Active:     true,
	}))

	got, err := s.store.ProviderForASN(s.ctx, 64500)
	s.Require().NoError(err)
	s.Equal(provider.ID, got.ID)

	_, err = s.store.ProviderForASN(s.ctx, 64501)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSecretReplacement() {
	provider := s.newProvider("https://greenhost.example.com")

	_, err := s.store.GetSecret(s.ctx, provider.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.CreateSecret(s.ctx, &models.SharedSecret{ProviderID: provider.ID, Body: "first"}))
	s.Require().NoError(s.store.DeleteSecret(s.ctx, provider.ID))
	s.Require().NoError(s.store.CreateSecret(s.ctx, &models.SharedSecret{ProviderID: provider.ID, Body: "second"}))

	secret, err := s.store.GetSecret(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Equal("second", secret.Body)
}

func (s *MemoryStoreSuite) TestDomainHashUniqueness() {
	provider := s.newProvider("https://greenhost.example.com")
	hash := &models.DomainHash{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Domain:     "example.com",
		Hash:       "GWF-01-abc",
	}
	s.Require().NoError(s.store.CreateDomainHash(s.ctx, hash))

	dup := *hash
	dup.ID = uuid.New()
	s.ErrorIs(s.store.CreateDomainHash(s.ctx, &dup), sentinel.ErrConflict)

	got, err := s.store.GetDomainHash(s.ctx, provider.ID, "example.com")
	s.Require().NoError(err)
	s.Equal(hash.Hash, got.Hash)

	s.Run("same domain under another provider is fine", func() {
		other := s.newProvider("https://other.example.org")
		s.NoError(s.store.CreateDomainHash(s.ctx, &models.DomainHash{
			ID:         uuid.New(),
			ProviderID: other.ID,
			Domain:     "example.com",
			Hash:       "GWF-01-def",
		}))
	})
}

func (s *MemoryStoreSuite) TestDocuments() {
	provider := s.newProvider("https://greenhost.example.com")
	doc := &models.SupportingDocument{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Title:      "Renewable certificate",
		URL:        "https://greenhost.example.com/cert.pdf",
		Public:     true,
	}
	s.Require().NoError(s.store.CreateDocument(s.ctx, doc))

	docs, err := s.store.DocumentsFor(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Len(docs, 1)

	got, err := s.store.FindDocumentByURL(s.ctx, provider.ID, doc.URL)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)

	_, err = s.store.FindDocumentByURL(s.ctx, provider.ID, "https://greenhost.example.com/missing.pdf")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
