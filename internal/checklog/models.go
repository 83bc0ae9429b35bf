// Package checklog ships completed site checks to an external broker for
// analytics. Logging is strictly best effort: a full inbox, an unhealthy
// broker, or an open circuit drops the event locally and never delays or
// fails the check that produced it.
package checklog

import (
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
)

// Event is one completed check plus the request metadata analytics needs.
type Event struct {
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	IP         string    `json:"ip,omitempty"`
	Green      bool      `json:"green"`
	ProviderID string    `json:"provider_id,omitempty"`
	MatchType  string    `json:"match_type"`
	Cached     bool      `json:"cached"`
	CheckedAt  time.Time `json:"checked_at"`

	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Parsed from UserAgent so analytics can aggregate without re-parsing
	// raw strings downstream.
	ClientName string `json:"client_name,omitempty"`
	ClientOS   string `json:"client_os,omitempty"`
	ClientBot  bool   `json:"client_bot,omitempty"`
}

// FromSiteCheck maps a check outcome into a loggable event.
func FromSiteCheck(check models.SiteCheck, requestID, clientIP, userAgent string) Event {
	e := Event{
		URL:       check.URL,
		Domain:    check.Domain,
		Green:     check.Green,
		MatchType: string(check.MatchType),
		Cached:    check.Cached,
		CheckedAt: check.CheckedAt,
		RequestID: requestID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
	}
	if check.IP.IsValid() {
		e.IP = check.IP.String()
	}
	if check.ProviderID != uuid.Nil {
		e.ProviderID = check.ProviderID.String()
	}
	if userAgent != "" {
		ua := useragent.New(userAgent)
		e.ClientName, _ = ua.Browser()
		e.ClientOS = ua.OS()
		e.ClientBot = ua.Bot()
	}
	return e
}
