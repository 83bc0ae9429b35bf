package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

// Memory is an in-memory green domain cache for tests and local runs.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]models.GreenDomain
	ttl      time.Duration
	delisted DelistedFn
}

type MemoryOption func(*Memory)

// WithDelistedFn wires the provider-flag callback PurgeArchived relies on.
func WithDelistedFn(fn DelistedFn) MemoryOption {
	return func(m *Memory) { m.delisted = fn }
}

// NewMemory constructs an empty cache with the given retention window.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]models.GreenDomain),
		ttl:     ttl,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Lookup(ctx context.Context, domain string) (*models.GreenDomain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[domain]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if m.ttl > 0 && entry.ModifiedAt.Before(requestcontext.Now(ctx).Add(-m.ttl)) {
		return nil, sentinel.ErrExpired
	}
	cp := entry
	return &cp, nil
}

func (m *Memory) Upsert(ctx context.Context, entry *models.GreenDomain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.ModifiedAt.IsZero() {
		cp.ModifiedAt = requestcontext.Now(ctx)
	}
	m.entries[cp.Domain] = cp
	return nil
}

func (m *Memory) Invalidate(_ context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, domain)
	return nil
}

func (m *Memory) DeleteByProvider(_ context.Context, providerID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []string
	for domain, entry := range m.entries {
		if entry.ProviderID == providerID {
			delete(m.entries, domain)
			purged = append(purged, domain)
		}
	}
	return purged, nil
}

func (m *Memory) PurgeExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := requestcontext.Now(ctx).Add(-ttl)
	var purged []string
	for domain, entry := range m.entries {
		if entry.ModifiedAt.Before(cutoff) {
			delete(m.entries, domain)
			purged = append(purged, domain)
		}
	}
	return purged, nil
}

func (m *Memory) PurgeArchived(ctx context.Context) ([]string, error) {
	if m.delisted == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []string
	for domain, entry := range m.entries {
		if entry.ProviderID == uuid.Nil {
			continue
		}
		gone, err := m.delisted(ctx, entry.ProviderID)
		if err != nil {
			return purged, err
		}
		if gone {
			delete(m.entries, domain)
			purged = append(purged, domain)
		}
	}
	return purged, nil
}

// Len reports the number of cached rows. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Store = (*Memory)(nil)
