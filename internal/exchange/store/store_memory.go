package store

import (
	"context"
	"sync"

	"passport/internal/exchange/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

// InMemoryStore keeps each passport's exchange ledger as a slice whose
// position is the exchange index.
type InMemoryStore struct {
	mu      sync.RWMutex
	ledgers map[domain.PassportID][]models.Exchange
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{ledgers: make(map[domain.PassportID][]models.Exchange)}
}

func (s *InMemoryStore) Count(_ context.Context, pid domain.PassportID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.ledgers[pid])), nil
}

// Create appends e. Its index must equal the current length.
func (s *InMemoryStore) Create(ctx context.Context, e *models.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.ledgers[e.PassportID]
	if e.Index != uint64(len(ledger)) {
		return sentinel.ErrConflict
	}
	s.ledgers[e.PassportID] = append(ledger, clone(e))

	pid, idx := e.PassportID, e.Index
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ledgers[pid] = s.ledgers[pid][:idx]
	})
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger := s.ledgers[pid]
	if idx >= uint64(len(ledger)) {
		return nil, sentinel.ErrNotFound
	}
	e := clone(&ledger[idx])
	return &e, nil
}

func (s *InMemoryStore) Update(ctx context.Context, e *models.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.ledgers[e.PassportID]
	if e.Index >= uint64(len(ledger)) {
		return sentinel.ErrNotFound
	}
	prev := ledger[e.Index]
	ledger[e.Index] = clone(e)

	pid, idx := e.PassportID, e.Index
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ledgers[pid][idx] = prev
	})
	return nil
}

// List returns records in index order, optionally only the open ones.
func (s *InMemoryStore) List(_ context.Context, pid domain.PassportID, openOnly bool) ([]*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Exchange, 0, len(s.ledgers[pid]))
	for i := range s.ledgers[pid] {
		if openOnly && !s.ledgers[pid][i].IsOpen() {
			continue
		}
		e := clone(&s.ledgers[pid][i])
		out = append(out, &e)
	}
	return out, nil
}

func (s *InMemoryStore) CountOpen(_ context.Context, pid domain.PassportID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for i := range s.ledgers[pid] {
		if s.ledgers[pid][i].IsOpen() {
			n++
		}
	}
	return n, nil
}

func clone(e *models.Exchange) models.Exchange {
	c := *e
	c.EncryptedExchangeKey = append([]byte(nil), e.EncryptedExchangeKey...)
	return c
}
