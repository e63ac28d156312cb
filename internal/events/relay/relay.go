// Package relay publishes outbox entries to a message sink.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"passport/internal/events"
)

// Outbox is the unpublished side of the event store.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]events.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink delivers a batch of entries. It returns only after the batch is
// durably accepted.
type Sink interface {
	Publish(ctx context.Context, entries []events.OutboxEntry) error
}

// Runner scopes one relay batch. The SQL runner makes FOR UPDATE SKIP LOCKED
// effective so several relays can share an outbox.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
	lockKey          = "outbox-relay"
)

// Worker polls the outbox and forwards entries to the sink. Entries are
// marked published only after the sink accepts them, so delivery is
// at-least-once.
type Worker struct {
	outbox    Outbox
	sink      Sink
	runner    Runner
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	published func(n int)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithRunner(r Runner) Option {
	return func(w *Worker) {
		w.runner = r
	}
}

// WithPublishedHook is called with the size of each delivered batch.
func WithPublishedHook(fn func(n int)) Option {
	return func(w *Worker) {
		w.published = fn
	}
}

func NewWorker(outbox Outbox, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		sink:      sink,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Sink failures are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.RelayOnce(ctx)
			if err != nil {
				w.logger.WarnContext(ctx, "outbox relay failed",
					"error", err,
				)
				continue
			}
			if n > 0 {
				w.logger.DebugContext(ctx, "outbox relayed",
					"count", n,
				)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were sent.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	var sent int
	batch := func(ctx context.Context) error {
		entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := w.sink.Publish(ctx, entries); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := w.outbox.MarkPublished(ctx, ids); err != nil {
			return err
		}
		sent = len(entries)
		return nil
	}

	var err error
	if w.runner != nil {
		err = w.runner.RunInTx(ctx, lockKey, batch)
	} else {
		err = batch(ctx)
	}
	if err != nil {
		return 0, err
	}
	if sent > 0 && w.published != nil {
		w.published(sent)
	}
	return sent, nil
}
