package checklog

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memorySink) Write(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type CheckLogSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *CheckLogSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestCheckLogSuite(t *testing.T) {
	suite.Run(t, new(CheckLogSuite))
}

func (s *CheckLogSuite) TestPublishNeverBlocks() {
	publisher := NewPublisher(2, nil)

	publisher.Publish(s.ctx, Event{Domain: "a.example.com"})
	publisher.Publish(s.ctx, Event{Domain: "b.example.com"})
	// Inbox is full; the third publish must drop instead of blocking.
	done := make(chan struct{})
	go func() {
		publisher.Publish(s.ctx, Event{Domain: "c.example.com"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("publish blocked on a full inbox")
	}
	s.Len(publisher.Inbox(), 2)
}

func (s *CheckLogSuite) TestWorkerDeliversInOrder() {
	publisher := NewPublisher(8, nil)
	sink := &memorySink{}
	worker := NewWorker(publisher.Inbox(), sink, nil, nil)

	ctx, cancel := context.WithCancel(s.ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = worker.Run(ctx)
	}()

	publisher.Publish(s.ctx, Event{Domain: "a.example.com"})
	publisher.Publish(s.ctx, Event{Domain: "b.example.com"})

	s.Eventually(func() bool { return sink.len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	s.Equal("a.example.com", sink.events[0].Domain)
	s.Equal("b.example.com", sink.events[1].Domain)
}

func (s *CheckLogSuite) TestWorkerDropsOnSinkError() {
	publisher := NewPublisher(8, nil)
	sink := &memorySink{err: errors.New("broker unreachable")}
	breaker := NewCircuitBreaker(3, time.Minute)
	worker := NewWorker(publisher.Inbox(), sink, breaker, nil)

	for range 3 {
		publisher.Publish(s.ctx, Event{Domain: "a.example.com"})
	}
	ctx, cancel := context.WithCancel(s.ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = worker.Run(ctx)
	}()

	s.Eventually(breaker.IsOpen, time.Second, 5*time.Millisecond,
		"three consecutive failures open the circuit")
	cancel()
	wg.Wait()
	s.Zero(sink.len())
}

func (s *CheckLogSuite) TestBreakerOpensAtThreshold() {
	breaker := NewCircuitBreaker(3, time.Minute)

	breaker.RecordFailure()
	breaker.RecordFailure()
	s.False(breaker.IsOpen())
	s.True(breaker.Allow())

	breaker.RecordFailure()
	s.True(breaker.IsOpen())
	s.False(breaker.Allow())
}

func (s *CheckLogSuite) TestBreakerSuccessResetsFailureCount() {
	breaker := NewCircuitBreaker(3, time.Minute)

	breaker.RecordFailure()
	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	breaker.RecordFailure()
	s.False(breaker.IsOpen())
}

func (s *CheckLogSuite) TestEventFromSiteCheck() {
	providerID := uuid.New()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	check := models.SiteCheck{
		URL:        "https://example.com",
		Domain:     "example.com",
		IP:         netip.MustParseAddr("192.0.2.10"),
		Green:      true,
		ProviderID: providerID,
		MatchType:  models.MatchIP,
		CheckedAt:  at,
	}

	event := FromSiteCheck(check, "req-1", "203.0.113.9", "curl/8.0")
	s.Equal("192.0.2.10", event.IP)
	s.Equal(providerID.String(), event.ProviderID)
	s.Equal("ip", event.MatchType)
	s.Equal("req-1", event.RequestID)

	s.Run("grey checks omit ip and provider", func() {
		event := FromSiteCheck(models.Grey("https://example.com", "example.com", at), "", "", "")
		s.Empty(event.IP)
		s.Empty(event.ProviderID)
		s.Equal("none", event.MatchType)
	})

	s.Run("browser user agents parse into client fields", func() {
		ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		event := FromSiteCheck(check, "", "", ua)
		s.Equal(ua, event.UserAgent, "raw string is kept alongside the parse")
		s.Equal("Chrome", event.ClientName)
		s.Contains(event.ClientOS, "Mac OS X")
		s.False(event.ClientBot)
	})

	s.Run("crawlers are flagged as bots", func() {
		ua := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
		event := FromSiteCheck(check, "", "", ua)
		s.True(event.ClientBot)
	})

	s.Run("empty user agent leaves client fields empty", func() {
		event := FromSiteCheck(check, "", "", "")
		s.Empty(event.ClientName)
		s.Empty(event.ClientOS)
		s.False(event.ClientBot)
	})
}

func (s *CheckLogSuite) TestBreakerHalfOpensAfterCooldown() {
	breaker := NewCircuitBreaker(1, 10*time.Millisecond)

	breaker.RecordFailure()
	s.False(breaker.Allow())

	time.Sleep(20 * time.Millisecond)
	s.True(breaker.Allow(), "expired cooldown lets a probe through")
}
