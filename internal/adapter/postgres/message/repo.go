// Package message implements conversation thread persistence using
// PostgreSQL. Threads are keyed by flat ID and append-only; visibility
// filtering happens in the service layer.
package message

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/domain"
)

const table = "messages"

var columns = []string{"id", "flat_id", "sender_id", "sender_name", "sender_email", "content", "created_at"}

// Repo persists messages.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends a message to its thread.
func (r *Repo) Create(ctx context.Context, m *domain.Message) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(m.ID, m.FlatID, m.SenderID, m.SenderName, m.SenderEmail, m.Content, m.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, m.ID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, m.ID.String())
	}
	return nil
}

// ListByFlat returns a thread's messages oldest first.
func (r *Repo) ListByFlat(ctx context.Context, flatID uuid.UUID) ([]domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"flat_id": flatID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.FlatID, &m.SenderID, &m.SenderName,
			&m.SenderEmail, &m.Content, &m.CreatedAt); err != nil {
			return nil, postgres.MapError(err, table, flatID.String())
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}
	return out, nil
}

// DeleteThread removes a listing's whole conversation.
func (r *Repo) DeleteThread(ctx context.Context, flatID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"flat_id": flatID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, flatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, flatID.String())
	}
	return nil
}

// DeleteBySender removes one user's messages across every thread. Used by
// the account deletion cascade.
func (r *Repo) DeleteBySender(ctx context.Context, senderID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"sender_id": senderID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, senderID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, senderID.String())
	}
	return nil
}
