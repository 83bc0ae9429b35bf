// Package domain holds the validated domain-name value used across the
// greencheck services. Every component normalizes through here so that
// cache keys, hash inputs, and DNS queries agree on one spelling.
package domain

import (
	"net/url"
	"strings"

	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
)

// Name is a normalized, syntactically valid hostname.
type Name string

func (n Name) String() string { return string(n) }

// Normalize lowercases, strips a trailing dot, and validates hostname
// syntax. It rejects anything that could not plausibly resolve: empty
// labels, missing TLD, illegal characters, oversized names.
func Normalize(raw string) (Name, error) {
	host := strings.ToLower(strings.TrimSpace(raw))
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "domain is required")
	}
	if len(host) > 253 {
		return "", dErrors.New(dErrors.CodeBadRequest, "domain exceeds 253 characters")
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "%q is not a resolvable hostname", raw)
	}
	for _, label := range labels {
		if !validLabel(label) {
			return "", dErrors.Newf(dErrors.CodeBadRequest, "%q is not a valid hostname", raw)
		}
	}
	return Name(host), nil
}

// FromURL extracts and normalizes the host from a URL or bare domain.
// "https://www.example.com/path", "example.com:443", and "example.com" all
// reduce to a Name.
func FromURL(raw string) (Name, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "url is required")
	}
	if strings.Contains(candidate, "://") {
		parsed, err := url.Parse(candidate)
		if err != nil || parsed.Hostname() == "" {
			return "", dErrors.Newf(dErrors.CodeBadRequest, "cannot extract a domain from %q", raw)
		}
		candidate = parsed.Hostname()
	} else {
		// Strip any path and port from a bare authority.
		if idx := strings.IndexByte(candidate, '/'); idx != -1 {
			candidate = candidate[:idx]
		}
		if idx := strings.LastIndexByte(candidate, ':'); idx != -1 && !strings.Contains(candidate, "]") {
			candidate = candidate[:idx]
		}
	}
	return Normalize(candidate)
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		case c == '_':
			// Underscores appear in service records (_carbon-txt etc.)
		default:
			return false
		}
	}
	return true
}
