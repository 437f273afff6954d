// Package favorite implements favorite mark persistence using PostgreSQL.
package favorite

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
)

const table = "favorites"

var columns = []string{"user_id", "flat_id", "created_at"}

// Repo persists favorite marks and publishes a delta on the owning user's
// favorites topic after every successful write. Feeds see their own toggles
// the same way they see remote ones.
type Repo struct {
	pool *pgxpool.Pool
	hub  *watch.Hub
}

// New creates a new favorite repository.
func New(pool *pgxpool.Pool, hub *watch.Hub) *Repo {
	return &Repo{pool: pool, hub: hub}
}

// Get returns the mark for (user, flat), or ErrNotFound.
func (r *Repo) Get(ctx context.Context, userID, flatID uuid.UUID) (*domain.FavoriteMark, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"user_id": userID, "flat_id": flatID}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}

	var m domain.FavoriteMark
	err = q.QueryRow(ctx, sql, args...).Scan(&m.UserID, &m.FlatID, &m.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}
	return &m, nil
}

// Create inserts a mark.
func (r *Repo) Create(ctx context.Context, mark *domain.FavoriteMark) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(mark.UserID, mark.FlatID, mark.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, mark.FlatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, mark.FlatID.String())
	}

	r.hub.Publish(watch.Delta{
		Topic: watch.FavoritesTopic(mark.UserID.String()),
		Op:    watch.OpAdded,
		Key:   mark.FlatID.String(),
		Doc:   mark,
	})
	return nil
}

// Delete removes a mark.
func (r *Repo) Delete(ctx context.Context, userID, flatID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"user_id": userID, "flat_id": flatID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, flatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, flatID.String())
	}

	r.hub.Publish(watch.Delta{
		Topic: watch.FavoritesTopic(userID.String()),
		Op:    watch.OpRemoved,
		Key:   flatID.String(),
	})
	return nil
}

// ListByUser returns all of one user's marks, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteMark, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, userID.String())
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, userID.String())
	}
	defer rows.Close()

	var out []domain.FavoriteMark
	for rows.Next() {
		var m domain.FavoriteMark
		if err := rows.Scan(&m.UserID, &m.FlatID, &m.CreatedAt); err != nil {
			return nil, postgres.MapError(err, table, userID.String())
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, table, userID.String())
	}
	return out, nil
}

// DeleteAllByUser removes a user's whole favorites subtree. Used by account
// deletion; no per-mark deltas are published for a dying session.
func (r *Repo) DeleteAllByUser(ctx context.Context, userID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, userID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, userID.String())
	}
	return nil
}
