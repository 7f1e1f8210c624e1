// Package publisher emits audit events without blocking the contract call
// that produced them. Events are buffered in memory and drained into an
// audit.Store by the audit worker.
package publisher

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	audit "secureupdate/pkg/platform/audit"
	"secureupdate/pkg/requestcontext"
)

// Publisher buffers audit events for asynchronous persistence.
type Publisher struct {
	buffer *RingBuffer
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for dropped-event warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a publisher holding at most capacity undelivered events.
func New(capacity int, opts ...Option) *Publisher {
	p := &Publisher{buffer: NewRingBuffer(capacity)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps and enqueues event. It never blocks and never fails; when the
// buffer is full the oldest undelivered event is dropped.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.buffer.Enqueue(event) && p.logger != nil {
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event",
			"action", event.Action,
			"dropped_total", p.buffer.Dropped(),
		)
	}
	return nil
}

// DequeueBatch hands up to n buffered events to the worker.
func (p *Publisher) DequeueBatch(n int) []audit.Event {
	return p.buffer.DequeueBatch(n)
}

// Pending reports how many events await delivery.
func (p *Publisher) Pending() int {
	return p.buffer.Len()
}
