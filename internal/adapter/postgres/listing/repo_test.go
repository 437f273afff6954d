package listing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/adapter/postgres/listing"
	"github.com/flatmarket/backend/internal/adapter/postgres/ownerindex"
	"github.com/flatmarket/backend/internal/adapter/postgres/testhelper"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
)

func newRepo(t *testing.T) (*listing.Repo, *watch.Hub) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	hub := watch.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return listing.New(pool, hub), hub
}

func TestRepo_CreateGetRoundTrip(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	want := testhelper.SeedListing(uuid.New())
	if err := repo.Create(ctx, &want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, want.FlatID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.OwnerID != want.OwnerID || got.City != want.City || got.Title != want.Title {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.DPE != domain.EnergyGradeC || got.EmissionConsumption != domain.EnergyGradeB {
		t.Errorf("energy grades lost: %s/%s", got.DPE, got.EmissionConsumption)
	}
	if len(got.Images) != 1 || got.Images[0] != want.Images[0] {
		t.Errorf("images mismatch: %v", got.Images)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestRepo_DualLocationRoundTrip(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	hub := watch.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	global := listing.New(pool, hub)
	index := ownerindex.New(pool)
	ctx := context.Background()

	ownerID := uuid.New()
	l := testhelper.SeedListing(ownerID)

	if err := global.Create(ctx, &l); err != nil {
		t.Fatalf("global Create: %v", err)
	}
	if err := index.Put(ctx, &l); err != nil {
		t.Fatalf("index Put: %v", err)
	}

	fromGlobal, err := global.GetByID(ctx, l.FlatID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	owned, err := index.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("owner index entries = %d, want 1", len(owned))
	}

	fromIndex := owned[0]
	if fromGlobal.FlatID != fromIndex.FlatID ||
		fromGlobal.Title != fromIndex.Title ||
		fromGlobal.Price != fromIndex.Price ||
		fromGlobal.Address != fromIndex.Address {
		t.Error("the two locations disagree on listing payload")
	}
}

func TestRepo_List_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	ownerID := uuid.New()
	older := testhelper.SeedListing(ownerID)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	newer := testhelper.SeedListing(ownerID)

	if err := repo.Create(ctx, &older); err != nil {
		t.Fatalf("Create older: %v", err)
	}
	if err := repo.Create(ctx, &newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	page, err := repo.List(ctx, domain.ListingFilter{}, 1000, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var posOlder, posNewer int = -1, -1
	for i, l := range page {
		switch l.FlatID {
		case older.FlatID:
			posOlder = i
		case newer.FlatID:
			posNewer = i
		}
	}
	if posOlder == -1 || posNewer == -1 {
		t.Fatal("seeded listings missing from page")
	}
	if posNewer > posOlder {
		t.Errorf("newer listing at %d, older at %d; want newest first", posNewer, posOlder)
	}
}

func TestRepo_List_Filters(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	ownerID := uuid.New()
	parisRent := testhelper.SeedListing(ownerID)
	parisRent.City = "Filterville"
	parisRent.Title = "Sunny loft with a terrace"

	lyonSale := testhelper.SeedListing(ownerID)
	lyonSale.City = "Filterburg"
	lyonSale.Mode = domain.ListingModeSell
	lyonSale.Type = domain.PropertyTypeHouse
	lyonSale.Surface = 140

	for _, l := range []*domain.Listing{&parisRent, &lyonSale} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	only := func(t *testing.T, f domain.ListingFilter, want uuid.UUID) {
		t.Helper()
		page, err := repo.List(ctx, f, 1000, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var hits []uuid.UUID
		for _, l := range page {
			if l.FlatID == parisRent.FlatID || l.FlatID == lyonSale.FlatID {
				hits = append(hits, l.FlatID)
			}
		}
		if len(hits) != 1 || hits[0] != want {
			t.Errorf("filter %+v matched %v, want only %s", f, hits, want)
		}
	}

	t.Run("city is case-insensitive", func(t *testing.T) {
		only(t, domain.ListingFilter{City: "filterville"}, parisRent.FlatID)
	})
	t.Run("mode", func(t *testing.T) {
		only(t, domain.ListingFilter{City: "Filterburg", Mode: domain.ListingModeSell}, lyonSale.FlatID)
	})
	t.Run("surface range", func(t *testing.T) {
		only(t, domain.ListingFilter{MinSurface: 100, MaxSurface: 200, City: "Filterburg"}, lyonSale.FlatID)
	})
	t.Run("free text matches title", func(t *testing.T) {
		only(t, domain.ListingFilter{Query: "sunny LOFT"}, parisRent.FlatID)
	})
	t.Run("combined filter excludes both", func(t *testing.T) {
		page, err := repo.List(ctx, domain.ListingFilter{City: "Filterville", Mode: domain.ListingModeSell}, 1000, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, l := range page {
			if l.FlatID == parisRent.FlatID || l.FlatID == lyonSale.FlatID {
				t.Errorf("listing %s matched a contradictory filter", l.FlatID)
			}
		}
	})
}

func TestRepo_WritesPublishDeltas(t *testing.T) {
	t.Parallel()
	repo, hub := newRepo(t)
	ctx := context.Background()

	sub := hub.Subscribe(watch.TopicListings, 16)
	defer sub.Cancel()

	l := testhelper.SeedListing(uuid.New())
	if err := repo.Create(ctx, &l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	l.Title = "Updated title for delta test"
	if err := repo.Update(ctx, &l); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Delete(ctx, l.FlatID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	wantOps := []watch.Op{watch.OpAdded, watch.OpModified, watch.OpRemoved}
	for _, want := range wantOps {
		select {
		case d := <-sub.Deltas():
			if d.Op != want || d.Key != l.FlatID.String() {
				t.Fatalf("delta = %s %s, want %s %s", d.Op, d.Key, want, l.FlatID)
			}
			if want == watch.OpModified {
				doc, ok := d.Doc.(*domain.Listing)
				if !ok || doc.Title != "Updated title for delta test" {
					t.Fatalf("modified delta doc = %#v", d.Doc)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s delta", want)
		}
	}
}

func TestRepo_UpdateMissing(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := testhelper.SeedListing(uuid.New())
	if err := repo.Update(ctx, &l); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepo_DeleteMissing(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepo_DuplicateCreate(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := testhelper.SeedListing(uuid.New())
	if err := repo.Create(ctx, &l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &l); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}
