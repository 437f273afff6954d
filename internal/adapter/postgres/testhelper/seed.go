package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flatmarket/backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user profile row and returns the filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:        uuid.New(),
		Email:     "testuser-" + suffix + "@example.com",
		FirstName: "Test",
		LastName:  "User " + suffix,
		BirthDate: "1990-01-01",
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, first_name, last_name, birth_date, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.BirthDate,
		user.Role.String(), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedListing builds a valid listing owned by ownerID. It only fills the
// struct; callers persist it through whichever repo they are testing.
func SeedListing(ownerID uuid.UUID) domain.Listing {
	suffix := uniqueSuffix()
	return domain.Listing{
		FlatID:              uuid.New(),
		OwnerID:             ownerID,
		Mode:                domain.ListingModeRent,
		Type:                domain.PropertyTypeApartment,
		City:                "Paris",
		Address:             "10 Rue de Rivoli " + suffix,
		Surface:             45,
		Rooms:               2,
		Furnished:           true,
		AirConditioned:      false,
		ConstructionYear:    1990,
		NotSubjectToDpe:     false,
		Consumption:         120,
		Emission:            15,
		DPE:                 domain.EnergyGradeC,
		EmissionConsumption: domain.EnergyGradeB,
		Images:              []string{"https://img.example.com/" + suffix + "-1.jpg"},
		Title:               "Charming flat near Louvre " + suffix,
		Description:         "A lovely two-room apartment close to everything.",
		Price:               1200,
		Charges:             150,
		CreatedAt:           time.Now().UTC().Truncate(time.Microsecond),
	}
}
