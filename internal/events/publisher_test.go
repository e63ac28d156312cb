package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport/internal/events"
	"passport/internal/events/store"
	"passport/pkg/domain"
	"passport/pkg/requestcontext"
)

func TestPublisherStampsEvents(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := store.NewInMemory()
	pub := events.NewPublisher(st, events.WithClock(func() time.Time { return fixed }))
	pid := domain.NewPassportID()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	require.NoError(t, pub.Emit(ctx, events.Event{PassportID: pid, Type: events.TypePassportCreated}))

	got, err := pub.List(ctx, pid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.Equal(t, fixed, got[0].OccurredAt)
	assert.Equal(t, "req-42", got[0].RequestID)
}

func TestPublisherFallsBackToRequestTime(t *testing.T) {
	requestTime := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	st := store.NewInMemory()
	pub := events.NewPublisher(st)
	pid := domain.NewPassportID()

	ctx := requestcontext.WithTime(context.Background(), requestTime)
	require.NoError(t, pub.Emit(ctx, events.Event{PassportID: pid, Type: events.TypePaused}))

	got, err := pub.List(ctx, pid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, requestTime, got[0].OccurredAt)
}
