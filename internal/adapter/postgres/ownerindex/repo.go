// Package ownerindex implements the per-owner listings index using
// PostgreSQL. It carries a full copy of each listing payload so an owner's
// listings can be read without touching the global collection.
package ownerindex

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/domain"
)

const table = "owner_listings"

var columns = []string{
	"owner_id", "flat_id", "mode", "type", "city", "address",
	"surface", "rooms", "furnished", "air_conditioned", "construction_year",
	"not_subject_to_dpe", "consumption", "emission", "dpe", "emission_consumption",
	"images", "title", "description", "price", "charges", "created_at",
}

// Repo persists the per-owner index.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new owner index repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Put inserts or overwrites the index entry for (owner, flat). Submissions
// and edits both land here with the same identifier and payload as the
// global write.
func (r *Repo) Put(ctx context.Context, l *domain.Listing) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(values(l)...)

	updates := "mode = EXCLUDED.mode, type = EXCLUDED.type, city = EXCLUDED.city, " +
		"address = EXCLUDED.address, surface = EXCLUDED.surface, rooms = EXCLUDED.rooms, " +
		"furnished = EXCLUDED.furnished, air_conditioned = EXCLUDED.air_conditioned, " +
		"construction_year = EXCLUDED.construction_year, not_subject_to_dpe = EXCLUDED.not_subject_to_dpe, " +
		"consumption = EXCLUDED.consumption, emission = EXCLUDED.emission, dpe = EXCLUDED.dpe, " +
		"emission_consumption = EXCLUDED.emission_consumption, images = EXCLUDED.images, " +
		"title = EXCLUDED.title, description = EXCLUDED.description, price = EXCLUDED.price, " +
		"charges = EXCLUDED.charges"

	sql, args, err := b.
		Suffix("ON CONFLICT (owner_id, flat_id) DO UPDATE SET " + updates).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, l.FlatID.String())
	}
	return nil
}

// Delete removes one index entry.
func (r *Repo) Delete(ctx context.Context, ownerID, flatID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"owner_id": ownerID, "flat_id": flatID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, flatID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, flatID.String())
	}
	return nil
}

// DeleteAllByOwner removes the whole index subtree for one owner.
func (r *Repo) DeleteAllByOwner(ctx context.Context, ownerID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, table, ownerID.String())
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, table, ownerID.String())
	}
	return nil
}

// ListByOwner returns every listing in one owner's index, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, table, ownerID.String())
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, ownerID.String())
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanOne(rows)
		if err != nil {
			return nil, postgres.MapError(err, table, ownerID.String())
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, table, ownerID.String())
	}
	return out, nil
}

func values(l *domain.Listing) []any {
	return []any{
		l.OwnerID, l.FlatID, string(l.Mode), string(l.Type), l.City, l.Address,
		l.Surface, l.Rooms, l.Furnished, l.AirConditioned, l.ConstructionYear,
		l.NotSubjectToDpe, l.Consumption, l.Emission, string(l.DPE), string(l.EmissionConsumption),
		l.Images, l.Title, l.Description, l.Price, l.Charges, l.CreatedAt,
	}
}

func scanOne(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var mode, ptype, dpe, emissionConsumption string
	err := row.Scan(
		&l.OwnerID, &l.FlatID, &mode, &ptype, &l.City, &l.Address,
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
