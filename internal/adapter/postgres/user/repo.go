// Package user implements the user profile repository using PostgreSQL.
package user

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

const table = "users"

var columns = []string{
	"id", "email", "first_name", "last_name", "birth_date",
	"avatar_url", "role", "created_at", "updated_at",
}

// Repo persists user profile documents.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id}, id.String())
}

// GetByEmail returns a user by email address.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email}, email)
}

func (r *Repo) getBy(ctx context.Context, where squirrel.Eq, key string) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, key)
	}

	u, err := scanOne(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, table, key)
	}
	return u, nil
}

// Create inserts a new user profile.
func (r *Repo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(u.ID, u.Email, u.FirstName, u.LastName, u.BirthDate,
			u.AvatarURL, u.Role.String(), u.CreatedAt, u.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, u.ID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, table, u.ID.String())
	}
	out := *u
	return &out, nil
}

// Update overwrites the mutable profile fields.
func (r *Repo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Update(table).
		Set("email", u.Email).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("avatar_url", u.AvatarURL).
		Set("updated_at", u.UpdatedAt).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, u.ID.String())
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, u.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, table, u.ID.String())
	}
	out := *u
	return &out, nil
}

// UpdateProfileFromProvider refreshes name and avatar from a federated
// login, leaving everything else untouched.
func (r *Repo) UpdateProfileFromProvider(ctx context.Context, id uuid.UUID, name *string, avatarURL *string) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := postgres.Builder().
		Update(table).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})
	if name != nil {
		first, last := splitName(*name)
		b = b.Set("first_name", first).Set("last_name", last)
	}
	if avatarURL != nil {
		b = b.Set("avatar_url", *avatarURL)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, id.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, table, id.String())
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user profile.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, id.String())
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, table, id.String())
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, table, id.String())
	}
	return nil
}

// List returns a page of users ordered by creation time.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, "")
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, "")
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanOne(rows)
		if err != nil {
			return nil, postgres.MapError(err, table, "")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, table, "")
	}
	return out, nil
}

func scanOne(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.BirthDate,
		&u.AvatarURL, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

// splitName breaks a provider display name into first and last on the first
// space.
func splitName(name string) (string, string) {
	for i, r := range name {
		if r == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
