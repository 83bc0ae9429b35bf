package carbontxt

import (
	"context"
	"io"
	"net"
	"time"
)

// manifests larger than this are rejected outright
const maxManifestBytes = 1 << 20

func readBounded(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxManifestBytes))
}

// ResolverDNSClient is the production DNSClient: the standard resolver with
// an explicit per-query timeout, so a slow nameserver surfaces as
// "delegation not found at this hop" rather than stalling the check.
type ResolverDNSClient struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewResolverDNSClient(timeout time.Duration) *ResolverDNSClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ResolverDNSClient{resolver: &net.Resolver{}, timeout: timeout}
}

func (c *ResolverDNSClient) LookupTXT(ctx context.Context, domain string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.resolver.LookupTXT(ctx, domain)
}
