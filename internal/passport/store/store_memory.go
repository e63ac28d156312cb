package store

import (
	"context"
	"sync"

	"passport/internal/passport/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

// InMemoryStore keeps passports in process memory. Records are copied in and
// out so callers never share state with the store.
type InMemoryStore struct {
	mu           sync.RWMutex
	passports    map[domain.PassportID]models.Passport
	systemPaused bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{passports: make(map[domain.PassportID]models.Passport)}
}

func (s *InMemoryStore) Create(ctx context.Context, p *models.Passport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.passports[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.passports[p.ID] = clone(p)

	id := p.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.passports, id)
	})
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.PassportID) (*models.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(&p)
	return &out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, p *models.Passport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.passports[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.passports[p.ID] = clone(p)

	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.passports[prev.ID] = prev
	})
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.Address) ([]*models.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Passport
	for _, p := range s.passports {
		if p.Owner == owner && !p.Destroyed {
			c := clone(&p)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SystemPaused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemPaused, nil
}

func (s *InMemoryStore) SetSystemPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemPaused = paused
	return nil
}

func clone(p *models.Passport) models.Passport {
	out := *p
	if p.PendingOwner != nil {
		pending := *p.PendingOwner
		out.PendingOwner = &pending
	}
	return out
}
