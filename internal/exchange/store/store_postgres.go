package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"passport/internal/commitment"
	"passport/internal/exchange/models"
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists exchange records in the exchanges table. Amounts
// are NUMERIC so full uint64 range survives the round trip.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
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

const selectColumns = `
	passport_id, idx, requester, requester_stake::text, owner, owner_stake::text,
	attester, fact_key, content_pointer, data_key_hash, encrypted_exchange_key,
	exchange_key_hash, encrypted_data_key, state, state_expiry, created_at, updated_at`

func (s *PostgresStore) Count(ctx context.Context, pid domain.PassportID) (uint64, error) {
	var n int64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges WHERE passport_id = $1`, uuid.UUID(pid)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count exchanges: %w", err)
	}
	return uint64(n), nil
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Exchange) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO exchanges (
			passport_id, idx, requester, requester_stake, owner, owner_stake,
			attester, fact_key, content_pointer, data_key_hash, encrypted_exchange_key,
			exchange_key_hash, encrypted_data_key, state, state_expiry, created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		uuid.UUID(e.PassportID), int64(e.Index), e.Requester.String(), e.RequesterStake.String(),
		e.Owner.String(), e.OwnerStake.String(), e.Attester.String(), e.Key.String(), e.ContentPointer,
		e.DataKeyHash.String(), e.EncryptedExchangeKey.String(), e.ExchangeKeyHash.String(),
		e.EncryptedDataKey.String(), int16(e.State), e.StateExpiry, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+selectColumns+` FROM exchanges WHERE passport_id = $1 AND idx = $2`,
		uuid.UUID(pid), int64(idx))
	e, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find exchange: %w", err)
	}
	return e, nil
}

// Update writes the mutable fields. Immutable fields are never rewritten.
func (s *PostgresStore) Update(ctx context.Context, e *models.Exchange) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE exchanges SET owner_stake = $3::numeric, encrypted_data_key = $4, state = $5,
			state_expiry = $6, updated_at = $7
		WHERE passport_id = $1 AND idx = $2
	`, uuid.UUID(e.PassportID), int64(e.Index), e.OwnerStake.String(), e.EncryptedDataKey.String(),
		int16(e.State), e.StateExpiry, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, pid domain.PassportID, openOnly bool) ([]*models.Exchange, error) {
	query := `SELECT ` + selectColumns + ` FROM exchanges WHERE passport_id = $1`
	if openOnly {
		query += ` AND state <> 0`
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query+` ORDER BY idx`, uuid.UUID(pid))
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	var out []*models.Exchange
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountOpen(ctx context.Context, pid domain.PassportID) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges WHERE passport_id = $1 AND state <> 0`,
		uuid.UUID(pid)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open exchanges: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExchange(row rowScanner) (*models.Exchange, error) {
	var (
		e                           models.Exchange
		pid                         uuid.UUID
		idx                         int64
		state                       int16
		requester, owner, attester  string
		key                         string
		requesterStake, ownerStake  string
		dataKeyHash, encExchangeKey string
		exchangeKeyHash, encDataKey string
	)
	if err := row.Scan(&pid, &idx, &requester, &requesterStake, &owner, &ownerStake,
		&attester, &key, &e.ContentPointer, &dataKeyHash, &encExchangeKey,
		&exchangeKeyHash, &encDataKey, &state, &e.StateExpiry, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.PassportID = domain.PassportID(pid)
	e.Index = uint64(idx)
	e.State = models.State(state)

	var err error
	if e.Requester, err = domain.ParseAddress(requester); err != nil {
		return nil, err
	}
	if e.Owner, err = domain.ParseAddress(owner); err != nil {
		return nil, err
	}
	if e.Attester, err = domain.ParseAddress(attester); err != nil {
		return nil, err
	}
	if e.Key, err = domain.ParseFactKey(key); err != nil {
		return nil, err
	}
	if e.RequesterStake, err = ledger.ParseAmount(requesterStake); err != nil {
		return nil, err
	}
	if e.OwnerStake, err = ledger.ParseAmount(ownerStake); err != nil {
		return nil, err
	}
	if e.DataKeyHash, err = commitment.ParseDigest(dataKeyHash); err != nil {
		return nil, err
	}
	if e.ExchangeKeyHash, err = commitment.ParseDigest(exchangeKeyHash); err != nil {
		return nil, err
	}
	if e.EncryptedExchangeKey, err = domain.ParseHexBytes(encExchangeKey); err != nil {
		return nil, err
	}
	if e.EncryptedDataKey, err = commitment.ParseKey(encDataKey); err != nil {
		return nil, err
	}
	return &e, nil
}
