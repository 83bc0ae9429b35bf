package models

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// MatchType is the evidentiary channel by which a domain was determined
// green.
type MatchType string

const (
	MatchIP        MatchType = "ip"
	MatchASN       MatchType = "asn"
	MatchCarbonTxt MatchType = "carbontxt"
	MatchNone      MatchType = "none"
)

// GreenDomain is the denormalized cache row for a checked domain. It is not
// a source of truth; it is always re-derivable from provider data, network
// ranges, and carbon.txt state.
type GreenDomain struct {
	Domain          string
	Green           bool
	ProviderID      uuid.UUID // uuid.Nil for grey results
	ProviderName    string
	ProviderWebsite string
	MatchType       MatchType
	ModifiedAt      time.Time
}

// SiteCheck is the immutable outcome of one resolution. It is the unit that
// gets logged and cached.
type SiteCheck struct {
	URL        string
	Domain     string
	IP         netip.Addr
	Green      bool
	ProviderID uuid.UUID
	MatchType  MatchType
	CheckedAt  time.Time
	Cached     bool
}

// FromCache builds a SiteCheck from a cache row without re-resolving.
func FromCache(entry GreenDomain, url string, at time.Time) SiteCheck {
	return SiteCheck{
		URL:        url,
		Domain:     entry.Domain,
		Green:      entry.Green,
		ProviderID: entry.ProviderID,
		MatchType:  entry.MatchType,
		CheckedAt:  at,
		Cached:     true,
	}
}

// Grey builds a non-green SiteCheck for a domain that could not be resolved
// or matched. Callers cannot distinguish "invalid" from "legitimately not
// green"; the internal logs retain the reason.
func Grey(url, domain string, at time.Time) SiteCheck {
	return SiteCheck{
		URL:       url,
		Domain:    domain,
		Green:     false,
		MatchType: MatchNone,
		CheckedAt: at,
	}
}
