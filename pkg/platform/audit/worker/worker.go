package worker

import (
	"context"
	"log/slog"
	"time"

	audit "secureupdate/pkg/platform/audit"
)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 100
	drainTimeout     = 5 * time.Second
)

// Source yields buffered audit events.
type Source interface {
	DequeueBatch(n int) []audit.Event
}

// Worker moves audit events from a Source into a Store on a fixed interval
// and drains what is left on shutdown.
type Worker struct {
	store    audit.Store
	source   Source
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// Option configures the Worker.
type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store audit.Store, source Source, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		source:   source,
		logger:   slog.Default(),
		interval: defaultInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes until ctx is cancelled, then drains the source with a bounded
// timeout and returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			w.Flush(drainCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush appends every buffered event to the store. Events the store rejects
// are logged and dropped.
func (w *Worker) Flush(ctx context.Context) int {
	written := 0
	for {
		events := w.source.DequeueBatch(w.batch)
		if len(events) == 0 {
			return written
		}
		for _, event := range events {
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"event_id", event.ID,
					"action", event.Action,
					"error", err,
				)
				continue
			}
			written++
		}
	}
}
