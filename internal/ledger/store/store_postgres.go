package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"passport/internal/ledger/models"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

// checkViolation is the SQLSTATE raised when a balance leaves its range.
const checkViolation = "23514"

// PostgresStore persists balances in ledger_accounts and the journal in
// ledger_entries. Balances are NUMERIC(20,0) constrained to the uint64 range.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Balance(ctx context.Context, account models.Account) (models.Amount, error) {
	var raw string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT balance::text FROM ledger_accounts WHERE id = $1`, string(account),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return models.ParseAmount(raw)
}

func (s *PostgresStore) Credit(ctx context.Context, account models.Account, amount models.Amount, memo string) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.add(ctx, account, amount); err != nil {
			return err
		}
		return s.record(ctx, models.MintAccount, account, amount, memo)
	})
}

func (s *PostgresStore) Transfer(ctx context.Context, from, to models.Account, amount models.Amount, memo string) error {
	if amount == 0 || from == to {
		return nil
	}
	return s.inTx(ctx, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE ledger_accounts SET balance = balance - $2::numeric
			WHERE id = $1 AND balance >= $2::numeric
		`, string(from), amount.String())
		if err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		if n == 0 {
			return sentinel.ErrInsufficientFunds
		}
		if err := s.add(ctx, to, amount); err != nil {
			return err
		}
		return s.record(ctx, from, to, amount, memo)
	})
}

func (s *PostgresStore) Entries(ctx context.Context, account models.Account) ([]models.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT transfer_id, account, counterparty, direction, amount::text, memo, created_at
		FROM ledger_entries
		WHERE account = $1
		ORDER BY seq ASC
	`, string(account))
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		var (
			e         models.Entry
			acct, cp  string
			dir, rawA string
		)
		if err := rows.Scan(&e.TransferID, &acct, &cp, &dir, &rawA, &e.Memo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		amount, err := models.ParseAmount(rawA)
		if err != nil {
			return nil, err
		}
		e.Account = models.Account(acct)
		e.Counterparty = models.Account(cp)
		e.Direction = models.Direction(dir)
		e.Amount = amount
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) add(ctx context.Context, account models.Account, amount models.Amount) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO ledger_accounts (id, balance) VALUES ($1, $2::numeric)
		ON CONFLICT (id) DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance
	`, string(account), amount.String())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return sentinel.ErrOverflow
		}
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

func (s *PostgresStore) record(ctx context.Context, from, to models.Account, amount models.Amount, memo string) error {
	transferID := uuid.New()
	now := s.now()
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO ledger_entries (transfer_id, account, counterparty, direction, amount, memo, created_at)
		VALUES ($1, $2, $3, 'debit', $4::numeric, $5, $6),
		       ($1, $3, $2, 'credit', $4::numeric, $5, $6)
	`, transferID, string(from), string(to), amount.String(), memo, now)
	if err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}
	return nil
}

// inTx runs fn in the caller's transaction, or opens a short one so the
// debit, credit and journal rows land together.
func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
