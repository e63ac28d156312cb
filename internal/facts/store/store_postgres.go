package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"passport/internal/commitment"
	"passport/internal/facts/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

// PostgresStore persists facts and permissions in PostgreSQL. Deletes are
// soft: the present flag is cleared and the row kept.
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

func (s *PostgresStore) GetFact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, error) {
	f := &models.Fact{PassportID: pid, Attester: attester, Key: key}
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT present, value, updated_at FROM facts
		WHERE passport_id = $1 AND attester = $2 AND fact_key = $3
	`, uuid.UUID(pid), attester.String(), key.String()).Scan(&f.Exists, &f.Value, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find fact: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) PutFact(ctx context.Context, f *models.Fact) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO facts (passport_id, attester, fact_key, present, value, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (passport_id, attester, fact_key) DO UPDATE SET
			present = EXCLUDED.present,
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(f.PassportID), f.Attester.String(), f.Key.String(), f.Exists, f.Value, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error) {
	d := &models.PrivateData{PassportID: pid, Attester: attester, Key: key}
	var hash string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT present, content_pointer, data_key_hash, updated_at FROM private_data
		WHERE passport_id = $1 AND attester = $2 AND fact_key = $3
	`, uuid.UUID(pid), attester.String(), key.String()).Scan(&d.Exists, &d.ContentPointer, &hash, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find private data: %w", err)
	}
	if d.DataKeyHash, err = commitment.ParseDigest(hash); err != nil {
		return nil, fmt.Errorf("decode data key hash: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) PutPrivateData(ctx context.Context, d *models.PrivateData) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO private_data (passport_id, attester, fact_key, present, content_pointer, data_key_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (passport_id, attester, fact_key) DO UPDATE SET
			present = EXCLUDED.present,
			content_pointer = EXCLUDED.content_pointer,
			data_key_hash = EXCLUDED.data_key_hash,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(d.PassportID), d.Attester.String(), d.Key.String(), d.Exists, d.ContentPointer, d.DataKeyHash.String(), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert private data: %w", err)
	}
	return nil
}

func (s *PostgresStore) Permissions(ctx context.Context, pid domain.PassportID) (models.Permissions, error) {
	perms := models.Permissions{Mode: models.ModeOpen, AllowList: make(map[domain.Address]struct{})}
	var mode string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT mode FROM passport_permissions WHERE passport_id = $1
	`, uuid.UUID(pid)).Scan(&mode)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return models.Permissions{}, fmt.Errorf("find permission mode: %w", err)
	default:
		perms.Mode = models.PermissionMode(mode)
	}

	list, err := s.ListAllowList(ctx, pid)
	if err != nil {
		return models.Permissions{}, err
	}
	for _, a := range list {
		perms.AllowList[a] = struct{}{}
	}
	return perms, nil
}

func (s *PostgresStore) SetPermissionMode(ctx context.Context, pid domain.PassportID, mode models.PermissionMode) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO passport_permissions (passport_id, mode, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (passport_id) DO UPDATE SET mode = EXCLUDED.mode, updated_at = EXCLUDED.updated_at
	`, uuid.UUID(pid), string(mode), s.now())
	if err != nil {
		return fmt.Errorf("set permission mode: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddToAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO passport_allowlist (passport_id, attester, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (passport_id, attester) DO NOTHING
	`, uuid.UUID(pid), attester.String(), s.now())
	if err != nil {
		return false, fmt.Errorf("add to allow-list: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) RemoveFromAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM passport_allowlist WHERE passport_id = $1 AND attester = $2
	`, uuid.UUID(pid), attester.String())
	if err != nil {
		return false, fmt.Errorf("remove from allow-list: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) ListAllowList(ctx context.Context, pid domain.PassportID) ([]domain.Address, error) {
	var raw []string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(array_agg(attester ORDER BY attester), '{}') FROM passport_allowlist WHERE passport_id = $1
	`, uuid.UUID(pid)).Scan(pq.Array(&raw))
	if err != nil {
		return nil, fmt.Errorf("list allow-list: %w", err)
	}
	out := make([]domain.Address, 0, len(raw))
	for _, r := range raw {
		a, err := domain.ParseAddress(r)
		if err != nil {
			return nil, fmt.Errorf("decode allow-listed attester: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
