package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory(time.Hour)
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func greenRow(domain string, providerID uuid.UUID) *models.GreenDomain {
	return &models.GreenDomain{
		Domain:          domain,
		Green:           true,
		ProviderID:      providerID,
		ProviderName:    "Green Host",
		ProviderWebsite: "https://greenhost.example.com",
		MatchType:       models.MatchIP,
	}
}

func (s *MemoryStoreSuite) TestUpsertAndLookup() {
	providerID := uuid.New()
	s.Require().NoError(s.store.Upsert(s.ctx, greenRow("example.com", providerID)))

	entry, err := s.store.Lookup(s.ctx, "example.com")
	s.Require().NoError(err)
	s.True(entry.Green)
	s.Equal(providerID, entry.ProviderID)
	s.False(entry.ModifiedAt.IsZero(), "upsert should stamp modified_at")

	s.Run("upsert replaces the row", func() {
		grey := &models.GreenDomain{Domain: "example.com", Green: false}
		s.Require().NoError(s.store.Upsert(s.ctx, grey))
		entry, err := s.store.Lookup(s.ctx, "example.com")
		s.Require().NoError(err)
		s.False(entry.Green)
		s.Equal(1, s.store.Len())
	})

	s.Run("unknown domain", func() {
		_, err := s.store.Lookup(s.ctx, "nowhere.example")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestLookupHonoursTTL() {
	written := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Upsert(requestcontext.WithTime(s.ctx, written), greenRow("example.com", uuid.New())))

	s.Run("fresh within the window", func() {
		at := requestcontext.WithTime(s.ctx, written.Add(59*time.Minute))
		_, err := s.store.Lookup(at, "example.com")
		s.NoError(err)
	})

	s.Run("stale past the window", func() {
		at := requestcontext.WithTime(s.ctx, written.Add(2*time.Hour))
		_, err := s.store.Lookup(at, "example.com")
		s.ErrorIs(err, sentinel.ErrExpired)
	})
}

func (s *MemoryStoreSuite) TestInvalidate() {
	s.Require().NoError(s.store.Upsert(s.ctx, greenRow("example.com", uuid.New())))
	s.Require().NoError(s.store.Invalidate(s.ctx, "example.com"))

	_, err := s.store.Lookup(s.ctx, "example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Invalidate(s.ctx, "example.com"), "invalidating a missing row is not an error")
}

func (s *MemoryStoreSuite) TestDeleteByProvider() {
	target := uuid.New()
	other := uuid.New()
	s.Require().NoError(s.store.Upsert(s.ctx, greenRow("a.example.com", target)))
	s.Require().NoError(s.store.Upsert(s.ctx, greenRow("b.example.com", target)))
	s.Require().NoError(s.store.Upsert(s.ctx, greenRow("c.example.com", other)))

	purged, err := s.store.DeleteByProvider(s.ctx, target)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"a.example.com", "b.example.com"}, purged)
	s.Equal(1, s.store.Len())

	_, err = s.store.Lookup(s.ctx, "c.example.com")
	s.NoError(err, "other providers' rows survive")
}

func (s *MemoryStoreSuite) TestPurgeExpired() {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := old.Add(48 * time.Hour)
	s.Require().NoError(s.store.Upsert(requestcontext.WithTime(s.ctx, old), greenRow("stale.example.com", uuid.New())))
	s.Require().NoError(s.store.Upsert(requestcontext.WithTime(s.ctx, now), greenRow("fresh.example.com", uuid.New())))

	purged, err := s.store.PurgeExpired(requestcontext.WithTime(s.ctx, now), 24*time.Hour)
	s.Require().NoError(err)
	s.Equal([]string{"stale.example.com"}, purged)
	s.Equal(1, s.store.Len())
}

func (s *MemoryStoreSuite) TestPurgeArchived() {
	archived := uuid.New()
	live := uuid.New()
	store := NewMemory(time.Hour, WithDelistedFn(func(_ context.Context, id uuid.UUID) (bool, error) {
		return id == archived, nil
	}))
	s.Require().NoError(store.Upsert(s.ctx, greenRow("gone.example.com", archived)))
	s.Require().NoError(store.Upsert(s.ctx, greenRow("kept.example.com", live)))
	s.Require().NoError(store.Upsert(s.ctx, &models.GreenDomain{Domain: "grey.example.com"}))

	purged, err := store.PurgeArchived(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"gone.example.com"}, purged)
	s.Equal(2, store.Len(), "grey rows without a provider are never purged")

	s.Run("no delisted callback is a no-op", func() {
		purged, err := s.store.PurgeArchived(s.ctx)
		s.NoError(err)
		s.Empty(purged)
	})
}
