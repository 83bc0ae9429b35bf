package checklog

import (
	"context"
	"log/slog"
)

// Sink delivers one event to the external broker.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Worker drains the publisher inbox and writes events through the circuit
// breaker. Delivery failures are dropped, never retried: check logs are
// observability data, not ledger entries.
type Worker struct {
	inbox   <-chan Event
	sink    Sink
	breaker *CircuitBreaker
	logger  *slog.Logger
}

func NewWorker(inbox <-chan Event, sink Sink, breaker *CircuitBreaker, logger *slog.Logger) *Worker {
	if breaker == nil {
		breaker = NewCircuitBreaker(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		inbox:   inbox,
		sink:    sink,
		breaker: breaker,
		logger:  logger,
	}
}

// Run consumes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	if !w.breaker.Allow() {
		droppedTotal.WithLabelValues("circuit_open").Inc()
		return
	}
	if err := w.sink.Write(ctx, event); err != nil {
		w.breaker.RecordFailure()
		droppedTotal.WithLabelValues("sink_error").Inc()
		w.logger.WarnContext(ctx, "check log delivery failed",
			"domain", event.Domain,
			"error", err,
		)
		return
	}
	w.breaker.RecordSuccess()
}
