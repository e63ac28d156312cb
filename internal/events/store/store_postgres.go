package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"passport/internal/events"
	"passport/pkg/domain"
	txcontext "passport/pkg/platform/tx"
)

// PostgresStore implements the transactional outbox. Append writes the
// queryable passport_events row and the outbox row in the caller's
// transaction; the relay later publishes outbox rows to Kafka.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	exec := s.execer(ctx)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO passport_events (id, passport_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, uuid.UUID(event.PassportID), string(event.Type), payload, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert passport event: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, "passport", event.PassportID.String(), string(event.Type), payload, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPassport(ctx context.Context, pid domain.PassportID) ([]events.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT payload FROM passport_events
		WHERE passport_id = $1
		ORDER BY seq ASC
	`, uuid.UUID(pid))
	if err != nil {
		return nil, fmt.Errorf("query passport events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan passport event: %w", err)
		}
		var e events.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode passport event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passport events: %w", err)
	}
	return out, nil
}

// FetchUnpublished returns the oldest unpublished outbox rows. Rows are
// locked with SKIP LOCKED when called inside a transaction so concurrent
// relays do not double-send.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]events.OutboxEntry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, payload, created_at FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []events.OutboxEntry
	for rows.Next() {
		var (
			entry   events.OutboxEntry
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Event); err != nil {
			return nil, fmt.Errorf("decode outbox payload: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = now() WHERE id = ANY($1::uuid[])`,
		uuidArray(ids))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func uuidArray(ids []uuid.UUID) any {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}
