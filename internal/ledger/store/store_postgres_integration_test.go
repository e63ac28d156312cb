//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"passport/internal/ledger/models"
	"passport/internal/ledger/store"
	"passport/pkg/platform/sentinel"
	"passport/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "ledger_accounts", "ledger_entries"))
}

func (s *PostgresLedgerSuite) TestTransferMovesFundsAndRecordsBothSides() {
	ctx := context.Background()
	s.Require().NoError(s.store.Credit(ctx, "id:a", 100, "seed"))
	s.Require().NoError(s.store.Transfer(ctx, "id:a", "id:b", 40, "stake"))

	a, err := s.store.Balance(ctx, "id:a")
	s.Require().NoError(err)
	b, err := s.store.Balance(ctx, "id:b")
	s.Require().NoError(err)
	s.Equal(models.Amount(60), a)
	s.Equal(models.Amount(40), b)

	entries, err := s.store.Entries(ctx, "id:b")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.DirectionCredit, entries[0].Direction)
	s.Equal(models.Account("id:a"), entries[0].Counterparty)
	s.Equal("stake", entries[0].Memo)
}

func (s *PostgresLedgerSuite) TestOverdraftIsRejected() {
	ctx := context.Background()
	s.Require().NoError(s.store.Credit(ctx, "id:a", 10, "seed"))

	err := s.store.Transfer(ctx, "id:a", "id:b", 11, "stake")
	s.True(errors.Is(err, sentinel.ErrInsufficientFunds))

	a, err := s.store.Balance(ctx, "id:a")
	s.Require().NoError(err)
	s.Equal(models.Amount(10), a)
}

func (s *PostgresLedgerSuite) TestUnknownAccountHasZeroBalance() {
	bal, err := s.store.Balance(context.Background(), "id:nobody")
	s.Require().NoError(err)
	s.Zero(bal)
}

// Concurrent debits from one account must never overdraw it.
func (s *PostgresLedgerSuite) TestConcurrentTransfersConserveFunds() {
	ctx := context.Background()
	s.Require().NoError(s.store.Credit(ctx, "id:a", 25, "seed"))

	const goroutines = 50
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Transfer(ctx, "id:a", "id:b", 1, "race"); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	a, err := s.store.Balance(ctx, "id:a")
	s.Require().NoError(err)
	b, err := s.store.Balance(ctx, "id:b")
	s.Require().NoError(err)
	s.Equal(int32(25), succeeded.Load())
	s.Zero(a)
	s.Equal(models.Amount(25), b)
}
