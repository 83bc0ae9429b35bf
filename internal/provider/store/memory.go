package store

import (
	"context"
	"net/netip"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/platform/sentinel"
)

// Memory is an in-memory Store for tests and dependency-free local runs.
type Memory struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*models.Provider
	ranges    map[uuid.UUID][]models.IPRange
	asns      map[uuid.UUID][]models.ASN
	documents map[uuid.UUID][]models.SupportingDocument
	secrets   map[uuid.UUID]*models.SharedSecret
	hashes    map[uuid.UUID]map[string]*models.DomainHash
}

// NewMemory constructs an empty in-memory provider store.
func NewMemory() *Memory {
	return &Memory{
		providers: make(map[uuid.UUID]*models.Provider),
		ranges:    make(map[uuid.UUID][]models.IPRange),
		asns:      make(map[uuid.UUID][]models.ASN),
		documents: make(map[uuid.UUID][]models.SupportingDocument),
		secrets:   make(map[uuid.UUID]*models.SharedSecret),
		hashes:    make(map[uuid.UUID]map[string]*models.DomainHash),
	}
}

func (s *Memory) CreateProvider(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	if _, exists := s.providers[provider.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *provider
	s.providers[provider.ID] = &cp
	return nil
}

func (s *Memory) GetProvider(_ context.Context, id uuid.UUID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *provider
	return &cp, nil
}

func (s *Memory) FindProviderByDomain(_ context.Context, domain string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	domain = strings.ToLower(domain)
	for _, provider := range s.providers {
		if provider.Archived {
			continue
		}
		if strings.ToLower(provider.Domain()) == domain {
			cp := *provider
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) ArchiveProvider(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	provider.Archived = true
	ranges := s.ranges[id]
	for i := range ranges {
		ranges[i].Active = false
	}
	asns := s.asns[id]
	for i := range asns {
		asns[i].Active = false
	}
	return nil
}

func (s *Memory) AddIPRange(_ context.Context, r *models.IPRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Start.Is4() != r.End.Is4() {
		return sentinel.ErrConflict
	}
	s.ranges[r.ProviderID] = append(s.ranges[r.ProviderID], *r)
	return nil
}

func (s *Memory) AddASN(_ context.Context, a *models.ASN) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.asns[a.ProviderID] = append(s.asns[a.ProviderID], *a)
	return nil
}

func (s *Memory) ActiveRangesFor(_ context.Context, providerID uuid.UUID) ([]models.IPRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.IPRange
	for _, r := range s.ranges[providerID] {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Memory) ActiveASNsFor(_ context.Context, providerID uuid.UUID) ([]models.ASN, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ASN
	for _, a := range s.asns[providerID] {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Memory) ProviderForIP(_ context.Context, ip netip.Addr) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for providerID, ranges := range s.ranges {
		provider, ok := s.providers[providerID]
		if !ok || provider.Archived {
			continue
		}
		for _, r := range ranges {
			if r.Active && r.Contains(ip) {
				cp := *provider
				return &cp, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) ProviderForASN(_ context.Context, asn uint32) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for providerID, asns := range s.asns {
		provider, ok := s.providers[providerID]
		if !ok || provider.Archived {
			continue
		}
		for _, a := range asns {
			if a.Active && a.Number == asn {
				cp := *provider
				return &cp, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) CreateDocument(_ context.Context, doc *models.SupportingDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.documents[doc.ProviderID] = append(s.documents[doc.ProviderID], *doc)
	return nil
}

func (s *Memory) DocumentsFor(_ context.Context, providerID uuid.UUID) ([]models.SupportingDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SupportingDocument(nil), s.documents[providerID]...), nil
}

func (s *Memory) FindDocumentByURL(_ context.Context, providerID uuid.UUID, url string) (*models.SupportingDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents[providerID] {
		if doc.URL == url {
			cp := doc
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) GetSecret(_ context.Context, providerID uuid.UUID) (*models.SharedSecret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[providerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *secret
	return &cp, nil
}

func (s *Memory) DeleteSecret(_ context.Context, providerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, providerID)
	return nil
}

func (s *Memory) CreateSecret(_ context.Context, secret *models.SharedSecret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.secrets[secret.ProviderID]; exists {
		return sentinel.ErrConflict
	}
	cp := *secret
	s.secrets[secret.ProviderID] = &cp
	return nil
}

func (s *Memory) CreateDomainHash(_ context.Context, hash *models.DomainHash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hash.ID == uuid.Nil {
		hash.ID = uuid.New()
	}
	byDomain, ok := s.hashes[hash.ProviderID]
	if !ok {
		byDomain = make(map[string]*models.DomainHash)
		s.hashes[hash.ProviderID] = byDomain
	}
	if _, exists := byDomain[hash.Domain]; exists {
		return sentinel.ErrConflict
	}
	cp := *hash
	byDomain[hash.Domain] = &cp
	return nil
}

func (s *Memory) GetDomainHash(_ context.Context, providerID uuid.UUID, domain string) (*models.DomainHash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[providerID][domain]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *hash
	return &cp, nil
}

var _ Store = (*Memory)(nil)
