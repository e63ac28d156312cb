package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"passport/internal/passport/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

const (
	uniqueViolation   = "23505"
	systemPausedParam = "system_paused"
)

// PostgresStore persists passports in the passports table.
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

func (s *PostgresStore) Create(ctx context.Context, p *models.Passport) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO passports (id, owner, pending_owner, paused, destroyed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(p.ID), p.Owner.String(), nullableAddress(p.PendingOwner), p.Paused, p.Destroyed, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert passport: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.PassportID) (*models.Passport, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, owner, pending_owner, paused, destroyed, created_at, updated_at
		FROM passports WHERE id = $1
	`, uuid.UUID(id))
	p, err := scanPassport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query passport: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Passport) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE passports
		SET owner = $2, pending_owner = $3, paused = $4, destroyed = $5, updated_at = $6
		WHERE id = $1
	`, uuid.UUID(p.ID), p.Owner.String(), nullableAddress(p.PendingOwner), p.Paused, p.Destroyed, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update passport: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update passport: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Passport, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, owner, pending_owner, paused, destroyed, created_at, updated_at
		FROM passports WHERE owner = $1 AND NOT destroyed
		ORDER BY created_at ASC
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("query passports: %w", err)
	}
	defer rows.Close()

	var out []*models.Passport
	for rows.Next() {
		p, err := scanPassport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passport: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passports: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SystemPaused(ctx context.Context) (bool, error) {
	var raw string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT value FROM system_settings WHERE name = $1`, systemPausedParam,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query system pause: %w", err)
	}
	return strconv.ParseBool(raw)
}

func (s *PostgresStore) SetSystemPaused(ctx context.Context, paused bool) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO system_settings (name, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, systemPausedParam, strconv.FormatBool(paused), s.now())
	if err != nil {
		return fmt.Errorf("update system pause: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPassport(row scanner) (*models.Passport, error) {
	var (
		p       models.Passport
		id      uuid.UUID
		owner   string
		pending sql.NullString
	)
	if err := row.Scan(&id, &owner, &pending, &p.Paused, &p.Destroyed, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.PassportID(id)
	addr, err := domain.ParseAddress(owner)
	if err != nil {
		return nil, fmt.Errorf("decode owner: %w", err)
	}
	p.Owner = addr
	if pending.Valid {
		nominee, err := domain.ParseAddress(pending.String)
		if err != nil {
			return nil, fmt.Errorf("decode pending owner: %w", err)
		}
		p.PendingOwner = &nominee
	}
	return &p, nil
}

func nullableAddress(addr *domain.Address) sql.NullString {
	if addr == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: addr.String(), Valid: true}
}
