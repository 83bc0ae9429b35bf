package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: row does not exist (provider, secret, cache entry)
// - ErrConflict: uniqueness violated (duplicate domain hash, duplicate domain)
// - ErrExpired: cache entry older than the retention window
// - ErrUnavailable: backing service (postgres, redis, broker) unreachable
//
// For validation errors (bad input, malformed domains), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
