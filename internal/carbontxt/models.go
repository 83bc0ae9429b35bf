package carbontxt

import (
	providermodels "github.com/thegreenwebfoundation/admin-portal-sub000/internal/provider/models"
)

// Lookup reasons recorded in the resolution trace.
const (
	ReasonInitial       = "initial request"
	ReasonDNSDelegation = "dns txt delegation"
	ReasonViaDelegation = "via header delegation"
)

// LookupEntry is one step of the delegation walk. The ordered sequence of
// entries is returned to callers for audit and debugging.
type LookupEntry struct {
	Reason string `json:"reason"`
	URL    string `json:"url"`
}

// Credential is one declared org credential or upstream provider in a
// manifest: a table with domain/doctype/url, or a bare domain string.
type Credential struct {
	Domain  string   `toml:"domain" json:"domain"`
	DocType string   `toml:"doctype" json:"doctype"`
	URL     string   `toml:"url" json:"url"`
	Aliases []string `toml:"aliases" json:"aliases,omitempty"`
}

// Manifest is the parsed carbon.txt structure. It is transient; read-only
// resolution projects it onto a ParseOutcome, import projects it onto
// provider records.
type Manifest struct {
	Org      []Credential
	Upstream []Credential
}

// NotRegistered collects manifest declarations that matched no known
// provider or evidence record. Surfaced, never silently discarded:
// registering them is a separate, explicit import.
type NotRegistered struct {
	Providers map[string]Credential `json:"providers"`
	Evidence  []Credential          `json:"evidence"`
}

// ParseOutcome is the result of read-only manifest resolution. Keys are
// declared domains; nil values mean the domain matched no provider.
type ParseOutcome struct {
	Org           map[string]*providermodels.Provider `json:"org"`
	Upstream      map[string]*providermodels.Provider `json:"upstream"`
	NotRegistered NotRegistered                       `json:"not_registered"`
}

// ImportResult reports what an import created or touched.
type ImportResult struct {
	Org      []string `json:"org"`
	Upstream []string `json:"upstream"`
}

// Resolution is the terminal state of a delegation walk: where the
// authoritative manifest was found, its raw text, the parsed declarations,
// and the full trace of how we got there.
type Resolution struct {
	Domain         string
	FinalURL       string
	Raw            string
	Manifest       *Manifest
	Outcome        *ParseOutcome
	LookupSequence []LookupEntry
}
