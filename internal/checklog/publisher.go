package checklog

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greencheck_checklog_published_total",
		Help: "Check events handed to the worker inbox",
	})
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greencheck_checklog_dropped_total",
		Help: "Check events dropped before delivery, by reason",
	}, []string{"reason"})
)

// Publisher hands events to the worker through a bounded inbox. Publish
// never blocks: when the inbox is full the event is dropped with a local
// warning.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Publish enqueues an event for async delivery.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	select {
	case p.inbox <- event:
		publishedTotal.Inc()
	default:
		droppedTotal.WithLabelValues("inbox_full").Inc()
		p.logger.WarnContext(ctx, "check log inbox full, dropping event",
			"domain", event.Domain,
			"request_id", event.RequestID,
		)
	}
}
