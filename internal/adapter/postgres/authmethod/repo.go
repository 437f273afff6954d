// Package authmethod implements credential persistence using PostgreSQL.
package authmethod

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/domain"
)

const table = "auth_methods"

var columns = []string{"id", "user_id", "method", "password_hash", "provider_id", "created_at"}

// Repo persists auth method records: one password hash or provider subject
// per (user, method).
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth method repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new credential.
func (r *Repo) Create(ctx context.Context, am *domain.AuthMethod) (*domain.AuthMethod, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	out := *am
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(out.ID, out.UserID, out.Method.String(), out.PasswordHash, out.ProviderID, out.CreatedAt).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, out.UserID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, table, out.UserID.String())
	}
	return &out, nil
}

// GetByOAuth returns the credential matching a provider subject.
func (r *Repo) GetByOAuth(ctx context.Context, method domain.AuthMethodType, providerID string) (*domain.AuthMethod, error) {
	return r.getBy(ctx, squirrel.Eq{"method": method.String(), "provider_id": providerID}, providerID)
}

// GetByUserAndMethod returns one user's credential of the given kind.
func (r *Repo) GetByUserAndMethod(ctx context.Context, userID uuid.UUID, method domain.AuthMethodType) (*domain.AuthMethod, error) {
	return r.getBy(ctx, squirrel.Eq{"user_id": userID, "method": method.String()}, userID.String())
}

func (r *Repo) getBy(ctx context.Context, where squirrel.Eq, key string) (*domain.AuthMethod, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, key)
	}

	var am domain.AuthMethod
	var method string
	err = q.QueryRow(ctx, sql, args...).Scan(
		&am.ID, &am.UserID, &method, &am.PasswordHash, &am.ProviderID, &am.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, table, key)
	}
	am.Method = domain.AuthMethodType(method)
	return &am, nil
}

// UpdatePasswordHash replaces the stored hash for a user's password
// credential.
func (r *Repo) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("password_hash", hash).
		Where(squirrel.Eq{"user_id": userID, "method": domain.AuthMethodPassword.String()}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, userID.String())
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, table, userID.String())
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, table, userID.String())
	}
	return nil
}

// DeleteAllByUser removes every credential attached to a user.
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
