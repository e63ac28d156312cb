package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"passport/internal/ledger/models"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

// InMemoryStore keeps balances and the journal in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[models.Account]models.Amount
	journal  []models.Entry
	now      func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		balances: make(map[models.Account]models.Amount),
		now:      time.Now,
	}
}

func (s *InMemoryStore) Balance(_ context.Context, account models.Account) (models.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemoryStore) Credit(ctx context.Context, account models.Account, amount models.Amount, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.balances[account].Add(amount)
	if !ok {
		return sentinel.ErrOverflow
	}
	s.balances[account] = next
	id := s.record(models.MintAccount, account, amount, memo)
	txcontext.OnRollback(ctx, func() { s.revert(models.MintAccount, account, amount, id) })
	return nil
}

func (s *InMemoryStore) Transfer(ctx context.Context, from, to models.Account, amount models.Amount, memo string) error {
	if amount == 0 || from == to {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.balances[from]
	if src < amount {
		return sentinel.ErrInsufficientFunds
	}
	dst, ok := s.balances[to].Add(amount)
	if !ok {
		return sentinel.ErrOverflow
	}
	s.balances[from] = src - amount
	s.balances[to] = dst
	id := s.record(from, to, amount, memo)
	txcontext.OnRollback(ctx, func() { s.revert(from, to, amount, id) })
	return nil
}

// revert undoes one recorded movement and drops its journal pair. Balances
// are adjusted by delta because accounts outside the passport lock may have
// moved since.
func (s *InMemoryStore) revert(from, to models.Account, amount models.Amount, transferID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from != models.MintAccount {
		s.balances[from] += amount
	}
	s.balances[to] -= amount
	kept := s.journal[:0]
	for _, e := range s.journal {
		if e.TransferID != transferID {
			kept = append(kept, e)
		}
	}
	s.journal = kept
}

func (s *InMemoryStore) Entries(_ context.Context, account models.Account) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Entry
	for _, e := range s.journal {
		if e.Account == account {
			out = append(out, e)
		}
	}
	return out, nil
}

// record appends the debit/credit pair. Caller holds mu.
func (s *InMemoryStore) record(from, to models.Account, amount models.Amount, memo string) uuid.UUID {
	transferID := uuid.New()
	now := s.now()
	s.journal = append(s.journal,
		models.Entry{
			TransferID:   transferID,
			Account:      from,
			Counterparty: to,
			Direction:    models.DirectionDebit,
			Amount:       amount,
			Memo:         memo,
			CreatedAt:    now,
		},
		models.Entry{
			TransferID:   transferID,
			Account:      to,
			Counterparty: from,
			Direction:    models.DirectionCredit,
			Amount:       amount,
			Memo:         memo,
			CreatedAt:    now,
		},
	)
	return transferID
}
