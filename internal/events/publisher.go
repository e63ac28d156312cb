package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"passport/pkg/domain"
	"passport/pkg/requestcontext"
)

// Store persists events. Append joins any transaction carried by ctx.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPassport(ctx context.Context, pid domain.PassportID) ([]Event, error)
}

// Publisher stamps and appends events. It is append-only.
type Publisher struct {
	store Store
	now   func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		if p.now != nil {
			event.OccurredAt = p.now()
		} else {
			event.OccurredAt = requestcontext.Now(ctx)
		}
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append %s event: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, pid domain.PassportID) ([]Event, error) {
	return p.store.ListByPassport(ctx, pid)
}
