package checklog

import (
	"context"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/greendomain/models"
	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/requestcontext"
)

// Logger adapts the publisher to the checker's fire-and-forget logging
// port, pulling request metadata out of the context.
type Logger struct {
	publisher *Publisher
}

func NewLogger(publisher *Publisher) *Logger {
	return &Logger{publisher: publisher}
}

func (l *Logger) Log(ctx context.Context, check models.SiteCheck) {
	event := FromSiteCheck(check,
		requestcontext.RequestID(ctx),
		requestcontext.ClientIP(ctx),
		requestcontext.UserAgent(ctx),
	)
	l.publisher.Publish(ctx, event)
}
