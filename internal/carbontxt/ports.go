package carbontxt

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	greenmodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
)

// DNSClient answers TXT queries. The production implementation wraps
// net.Resolver with a per-query timeout.
type DNSClient interface {
	LookupTXT(ctx context.Context, domain string) ([]string, error)
}

// FetchResult is the body and the delegation-relevant header of one HTTP
// fetch.
type FetchResult struct {
	Body       []byte
	Via        string
	StatusCode int
}

// Fetcher performs one bounded HTTP GET of a carbon.txt candidate URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// HashVerifier checks a discovered domain hash against a provider's current
// secret. Satisfied by the hashes service.
type HashVerifier interface {
	Verify(ctx context.Context, domain, candidateHash string, providerID uuid.UUID) (bool, error)
}

// Directory is the provider repository surface the parser and importer
// need.
type Directory interface {
	FindProviderByDomain(ctx context.Context, domain string) (*providermodels.Provider, error)
	CreateProvider(ctx context.Context, provider *providermodels.Provider) error
	DocumentsFor(ctx context.Context, providerID uuid.UUID) ([]providermodels.SupportingDocument, error)
	FindDocumentByURL(ctx context.Context, providerID uuid.UUID, url string) (*providermodels.SupportingDocument, error)
	CreateDocument(ctx context.Context, doc *providermodels.SupportingDocument) error
}

// GreenCache is the slice of the green domain cache the resolver and
// importer write through.
type GreenCache interface {
	Upsert(ctx context.Context, entry *greenmodels.GreenDomain) error
}

// HTTPFetcher is the production Fetcher backed by net/http.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "greencheck-resolver/1.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBounded(resp.Body)
	if err != nil {
		return nil, err
	}
	return &FetchResult{
		Body:       body,
		Via:        resp.Header.Get("Via"),
		StatusCode: resp.StatusCode,
	}, nil
}
