// Package listing implements the global listings collection using PostgreSQL.
package listing

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
)

const table = "listings"

var columns = []string{
	"flat_id", "owner_id", "mode", "type", "city", "address",
	"surface", "rooms", "furnished", "air_conditioned", "construction_year",
	"not_subject_to_dpe", "consumption", "emission", "dpe", "emission_consumption",
	"images", "title", "description", "price", "charges", "created_at",
}

// Repo persists listings and publishes a hub delta after every successful
// write, so live feeds track the collection without polling.
type Repo struct {
	pool *pgxpool.Pool
	hub  *watch.Hub
}

// New creates a new listing repository.
func New(pool *pgxpool.Pool, hub *watch.Hub) *Repo {
	return &Repo{pool: pool, hub: hub}
}

// Create inserts a new listing document.
func (r *Repo) Create(ctx context.Context, l *domain.Listing) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(values(l)...).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}

	r.hub.Publish(watch.Delta{
		Topic: watch.TopicListings,
		Op:    watch.OpAdded,
		Key:   l.FlatID.String(),
		Doc:   cloned(l),
	})
	return nil
}

// Update overwrites an existing listing document.
func (r *Repo) Update(ctx context.Context, l *domain.Listing) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := postgres.Builder().Update(table)
	vals := values(l)
	for i, col := range columns {
		if col == "flat_id" {
			continue
		}
		b = b.Set(col, vals[i])
	}
	sql, args, err := b.Where(squirrel.Eq{"flat_id": l.FlatID}).ToSql()
	if err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, table, l.FlatID.String())
	}

	r.hub.Publish(watch.Delta{
		Topic: watch.TopicListings,
		Op:    watch.OpModified,
		Key:   l.FlatID.String(),
		Doc:   cloned(l),
	})
	return nil
}

// Delete removes a listing document.
func (r *Repo) Delete(ctx context.Context, flatID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"flat_id": flatID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, flatID.String())
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, table, flatID.String())
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, table, flatID.String())
	}

	r.hub.Publish(watch.Delta{
		Topic: watch.TopicListings,
		Op:    watch.OpRemoved,
		Key:   flatID.String(),
	})
	return nil
}

// GetByID returns one listing by flat ID.
func (r *Repo) GetByID(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"flat_id": flatID}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}

	l, err := scanOne(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, table, flatID.String())
	}
	return l, nil
}

// List returns a page of listings ordered newest first, narrowed by the
// zero-value-ignoring filter.
func (r *Repo) List(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := postgres.Builder().
		Select(columns...).
		From(table)
	if f.City != "" {
		b = b.Where(squirrel.ILike{"city": f.City})
	}
	if f.Type != "" {
		b = b.Where(squirrel.Eq{"type": string(f.Type)})
	}
	if f.Mode != "" {
		b = b.Where(squirrel.Eq{"mode": string(f.Mode)})
	}
	if f.MinSurface > 0 {
		b = b.Where(squirrel.GtOrEq{"surface": f.MinSurface})
	}
	if f.MaxSurface > 0 {
		b = b.Where(squirrel.LtOrEq{"surface": f.MaxSurface})
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"city": pattern},
		})
	}

	sql, args, err := b.
		OrderBy("created_at DESC").
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

	return scanAll(rows)
}

func values(l *domain.Listing) []any {
	return []any{
		l.FlatID, l.OwnerID, string(l.Mode), string(l.Type), l.City, l.Address,
		l.Surface, l.Rooms, l.Furnished, l.AirConditioned, l.ConstructionYear,
		l.NotSubjectToDpe, l.Consumption, l.Emission, string(l.DPE), string(l.EmissionConsumption),
		l.Images, l.Title, l.Description, l.Price, l.Charges, l.CreatedAt,
	}
}

func scanOne(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var mode, ptype, dpe, emissionConsumption string
	err := row.Scan(
		&l.FlatID, &l.OwnerID, &mode, &ptype, &l.City, &l.Address,
		&l.Surface, &l.Rooms, &l.Furnished, &l.AirConditioned, &l.ConstructionYear,
		&l.NotSubjectToDpe, &l.Consumption, &l.Emission, &dpe, &emissionConsumption,
		&l.Images, &l.Title, &l.Description, &l.Price, &l.Charges, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Mode = domain.ListingMode(mode)
	l.Type = domain.PropertyType(ptype)
	l.DPE = domain.EnergyGrade(dpe)
	l.EmissionConsumption = domain.EnergyGrade(emissionConsumption)
	return &l, nil
}

func scanAll(rows pgx.Rows) ([]domain.Listing, error) {
	var out []domain.Listing
	for rows.Next() {
		l, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// cloned copies the listing for the hub so subscribers never share the
// caller's slice.
func cloned(l *domain.Listing) *domain.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	return &c
}
