package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"passport/internal/events"
	"passport/pkg/domain"
	txcontext "passport/pkg/platform/tx"
)

// InMemoryStore keeps events per passport plus an unpublished outbox queue.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    map[domain.PassportID][]events.Event
	outbox    []events.OutboxEntry
	published map[uuid.UUID]bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		events:    make(map[domain.PassportID][]events.Event),
		published: make(map[uuid.UUID]bool),
	}
}

func (s *InMemoryStore) Append(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.PassportID] = append(s.events[event.PassportID], event)
	s.outbox = append(s.outbox, events.OutboxEntry{ID: event.ID, Event: event, CreatedAt: event.OccurredAt})
	txcontext.OnRollback(ctx, func() { s.drop(event.PassportID, event.ID) })
	return nil
}

// drop removes an event appended by a transaction that later failed.
func (s *InMemoryStore) drop(pid domain.PassportID, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.events[pid]
	for i := range list {
		if list[i].ID == id {
			s.events[pid] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			s.outbox = append(s.outbox[:i:i], s.outbox[i+1:]...)
			break
		}
	}
}

func (s *InMemoryStore) ListByPassport(_ context.Context, pid domain.PassportID) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event{}, s.events[pid]...), nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]events.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []events.OutboxEntry
	for _, entry := range s.outbox {
		if s.published[entry.ID] {
			continue
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}

	// compact
	kept := s.outbox[:0]
	for _, entry := range s.outbox {
		if !s.published[entry.ID] {
			kept = append(kept, entry)
		} else {
			delete(s.published, entry.ID)
		}
	}
	s.outbox = kept
	return nil
}

// Clear drops every stored event.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.PassportID][]events.Event)
	s.outbox = nil
	s.published = make(map[uuid.UUID]bool)
}
