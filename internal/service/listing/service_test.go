package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// listingRepoMock is a mock implementation of listingRepo.
type listingRepoMock struct {
	CreateFunc  func(ctx context.Context, l *domain.Listing) error
	UpdateFunc  func(ctx context.Context, l *domain.Listing) error
	DeleteFunc  func(ctx context.Context, flatID uuid.UUID) error
	GetByIDFunc func(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error)
	ListFunc    func(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error)
}

func (m *listingRepoMock) Create(ctx context.Context, l *domain.Listing) error {
	return m.CreateFunc(ctx, l)
}
func (m *listingRepoMock) Update(ctx context.Context, l *domain.Listing) error {
	return m.UpdateFunc(ctx, l)
}
func (m *listingRepoMock) Delete(ctx context.Context, flatID uuid.UUID) error {
	return m.DeleteFunc(ctx, flatID)
}
func (m *listingRepoMock) GetByID(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error) {
	return m.GetByIDFunc(ctx, flatID)
}
func (m *listingRepoMock) List(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error) {
	return m.ListFunc(ctx, f, limit, offset)
}

// ownerIndexRepoMock is a mock implementation of ownerIndexRepo.
type ownerIndexRepoMock struct {
	PutFunc         func(ctx context.Context, l *domain.Listing) error
	DeleteFunc      func(ctx context.Context, ownerID, flatID uuid.UUID) error
	ListByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error)
}

func (m *ownerIndexRepoMock) Put(ctx context.Context, l *domain.Listing) error {
	return m.PutFunc(ctx, l)
}
func (m *ownerIndexRepoMock) Delete(ctx context.Context, ownerID, flatID uuid.UUID) error {
	return m.DeleteFunc(ctx, ownerID, flatID)
}
func (m *ownerIndexRepoMock) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error) {
	return m.ListByOwnerFunc(ctx, ownerID)
}

// threadRepoMock is a mock implementation of threadRepo.
type threadRepoMock struct {
	DeleteThreadFunc func(ctx context.Context, flatID uuid.UUID) error
}

func (m *threadRepoMock) DeleteThread(ctx context.Context, flatID uuid.UUID) error {
	return m.DeleteThreadFunc(ctx, flatID)
}

// imageUploaderMock is a mock implementation of imageUploader.
type imageUploaderMock struct {
	UploadFunc func(ctx context.Context, file *domain.ImageFile) (string, error)
}

func (m *imageUploaderMock) Upload(ctx context.Context, file *domain.ImageFile) (string, error) {
	return m.UploadFunc(ctx, file)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(listings listingRepo, ownerIndex ownerIndexRepo, threads threadRepo, uploader imageUploader) *Service {
	if listings == nil {
		listings = &listingRepoMock{}
	}
	if ownerIndex == nil {
		ownerIndex = &ownerIndexRepoMock{}
	}
	if threads == nil {
		threads = &threadRepoMock{}
	}
	if uploader == nil {
		uploader = &imageUploaderMock{
			UploadFunc: func(ctx context.Context, file *domain.ImageFile) (string, error) {
				return "https://cdn.example.com/" + file.Name, nil
			},
		}
	}
	return NewService(testLogger(), listings, ownerIndex, threads, uploader,
		config.ListingConfig{PageSize: 50, MaxPageSize: 200},
		config.UploadConfig{MaxConcurrent: 4})
}

func localImage(name string) domain.ImageRef {
	return domain.LocalImage(&domain.ImageFile{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        1024,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("img")), nil
		},
	})
}

func validDraft() *domain.ListingDraft {
	furnished := true
	aircon := false
	return &domain.ListingDraft{
		Mode:                domain.ListingModeRent,
		Type:                domain.PropertyTypeApartment,
		City:                "Paris",
		Address:             "10 Rue de Rivoli",
		Surface:             45,
		Rooms:               2,
		Furnished:           &furnished,
		AirConditioned:      &aircon,
		ConstructionYear:    1990,
		Consumption:         120,
		Emission:            15,
		DPE:                 domain.EnergyGradeC,
		EmissionConsumption: domain.EnergyGradeB,
		Images:              []domain.ImageRef{localImage("a.jpg"), localImage("b.jpg")},
		Title:               "Bright two-room flat",
		Description:         "A lovely renovated flat close to the metro and all amenities.",
		Price:               1200,
		Charges:             150,
	}
}

func authedCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithUserID(context.Background(), userID)
}

func TestService_Submit_DualWrite(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	var global, index *domain.Listing

	listings := &listingRepoMock{
		CreateFunc: func(ctx context.Context, l *domain.Listing) error {
			global = l
			return nil
		},
	}
	ownerIndex := &ownerIndexRepoMock{
		PutFunc: func(ctx context.Context, l *domain.Listing) error {
			index = l
			return nil
		},
	}
	svc := testService(listings, ownerIndex, nil, nil)

	l, err := svc.Submit(authedCtx(ownerID), validDraft())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if global == nil || index == nil {
		t.Fatal("expected writes to both locations")
	}
	if global.FlatID != index.FlatID {
		t.Errorf("locations got different IDs: %s vs %s", global.FlatID, index.FlatID)
	}
	if global != index {
		// Same payload is the contract even if pointers differ.
		if global.Title != index.Title || global.Price != index.Price {
			t.Error("locations got different payloads")
		}
	}
	if l.OwnerID != ownerID {
		t.Errorf("OwnerID = %s, want %s", l.OwnerID, ownerID)
	}
	if l.FlatID == uuid.Nil {
		t.Error("FlatID not assigned")
	}
}

func TestService_Submit_ImageOrderPreserved(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	draft := validDraft()
	draft.Images = []domain.ImageRef{localImage("a.jpg"), localImage("b.jpg"), localImage("c.jpg")}

	// Completions arrive out of order; the slots must not.
	var mu sync.Mutex
	started := 0
	uploader := &imageUploaderMock{
		UploadFunc: func(ctx context.Context, file *domain.ImageFile) (string, error) {
			mu.Lock()
			started++
			order := started
			mu.Unlock()
			time.Sleep(time.Duration(4-order) * 10 * time.Millisecond)
			return "https://cdn.example.com/" + file.Name, nil
		},
	}

	var got *domain.Listing
	listings := &listingRepoMock{
		CreateFunc: func(ctx context.Context, l *domain.Listing) error {
			got = l
			return nil
		},
	}
	svc := testService(listings, nil, nil, uploader)

	if _, err := svc.Submit(authedCtx(ownerID), draft); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	}
	for i, w := range want {
		if got.Images[i] != w {
			t.Errorf("Images[%d] = %q, want %q", i, got.Images[i], w)
		}
	}
}

func TestService_Submit_UploadFailureAbortsBeforePersistence(t *testing.T) {
	t.Parallel()

	uploader := &imageUploaderMock{
		UploadFunc: func(ctx context.Context, file *domain.ImageFile) (string, error) {
			return "", &domain.UploadError{Filename: file.Name, Err: errors.New("host down")}
		},
	}
	listings := &listingRepoMock{
		CreateFunc: func(ctx context.Context, l *domain.Listing) error {
			t.Error("persistence write must not happen after upload failure")
			return nil
		},
	}
	svc := testService(listings, nil, nil, uploader)

	_, err := svc.Submit(authedCtx(uuid.New()), validDraft())

	var uerr *domain.UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UploadError", err)
	}
}

func TestService_Submit_SecondWriteFailureNamesLocation(t *testing.T) {
	t.Parallel()

	created := false
	listings := &listingRepoMock{
		CreateFunc: func(ctx context.Context, l *domain.Listing) error {
			created = true
			return nil
		},
	}
	ownerIndex := &ownerIndexRepoMock{
		PutFunc: func(ctx context.Context, l *domain.Listing) error {
			return errors.New("index down")
		},
	}
	svc := testService(listings, ownerIndex, nil, nil)

	_, err := svc.Submit(authedCtx(uuid.New()), validDraft())

	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if perr.Location != "owner_listings" {
		t.Errorf("Location = %q, want owner_listings", perr.Location)
	}
	// The no-rollback gap: the global write is left in place.
	if !created {
		t.Error("global write should have happened before index failure")
	}
}

func TestService_Submit_Unauthenticated(t *testing.T) {
	t.Parallel()

	svc := testService(nil, nil, nil, nil)
	_, err := svc.Submit(context.Background(), validDraft())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestService_Submit_InvalidDraft(t *testing.T) {
	t.Parallel()

	draft := validDraft()
	draft.Rooms = 0
	svc := testService(nil, nil, nil, nil)

	_, err := svc.Submit(authedCtx(uuid.New()), draft)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	flatID := uuid.New()
	createdAt := time.Now().Add(-24 * time.Hour)
	stored := &domain.Listing{FlatID: flatID, OwnerID: ownerID, CreatedAt: createdAt, Title: "Old title"}

	t.Run("immutables preserved in both locations", func(t *testing.T) {
		t.Parallel()

		var global, index *domain.Listing
		listings := &listingRepoMock{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
				cp := *stored
				return &cp, nil
			},
			UpdateFunc: func(ctx context.Context, l *domain.Listing) error {
				global = l
				return nil
			},
		}
		ownerIndex := &ownerIndexRepoMock{
			PutFunc: func(ctx context.Context, l *domain.Listing) error {
				index = l
				return nil
			},
		}
		svc := testService(listings, ownerIndex, nil, nil)

		draft := validDraft()
		draft.Images = []domain.ImageRef{domain.RemoteImage("https://cdn.example.com/kept.jpg")}

		updated, err := svc.Update(authedCtx(ownerID), flatID, draft)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.FlatID != flatID || updated.OwnerID != ownerID || !updated.CreatedAt.Equal(createdAt) {
			t.Error("identity fields changed on update")
		}
		if updated.Title != draft.Title {
			t.Errorf("Title = %q, want %q", updated.Title, draft.Title)
		}
		if updated.Images[0] != "https://cdn.example.com/kept.jpg" {
			t.Errorf("remote image not passed through: %v", updated.Images)
		}
		if global == nil || index == nil {
			t.Fatal("expected writes to both locations")
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		t.Parallel()

		listings := &listingRepoMock{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
				cp := *stored
				return &cp, nil
			},
		}
		svc := testService(listings, nil, nil, nil)

		_, err := svc.Update(authedCtx(uuid.New()), flatID, validDraft())
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	flatID := uuid.New()
	stored := &domain.Listing{FlatID: flatID, OwnerID: ownerID}

	newMocks := func() (*listingRepoMock, *ownerIndexRepoMock, *threadRepoMock, *[]string) {
		var order []string
		listings := &listingRepoMock{
			GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
				cp := *stored
				return &cp, nil
			},
			DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
				order = append(order, "listings")
				return nil
			},
		}
		ownerIndex := &ownerIndexRepoMock{
			DeleteFunc: func(ctx context.Context, oID, fID uuid.UUID) error {
				if oID != ownerID {
					return fmt.Errorf("wrong owner %s", oID)
				}
				order = append(order, "owner_listings")
				return nil
			},
		}
		threads := &threadRepoMock{
			DeleteThreadFunc: func(ctx context.Context, fID uuid.UUID) error {
				order = append(order, "thread")
				return nil
			},
		}
		return listings, ownerIndex, threads, &order
	}

	t.Run("owner deletes own listing", func(t *testing.T) {
		t.Parallel()

		listings, ownerIndex, threads, order := newMocks()
		svc := testService(listings, ownerIndex, threads, nil)

		if err := svc.Delete(authedCtx(ownerID), flatID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if len(*order) != 3 {
			t.Errorf("deleted from %v, want all three locations", *order)
		}
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		t.Parallel()

		listings, ownerIndex, threads, order := newMocks()
		svc := testService(listings, ownerIndex, threads, nil)

		ctx := ctxutil.WithRole(authedCtx(uuid.New()), domain.UserRoleAdmin.String())
		if err := svc.Delete(ctx, flatID); err != nil {
			t.Fatalf("admin Delete failed: %v", err)
		}
		if len(*order) != 3 {
			t.Errorf("deleted from %v, want all three locations", *order)
		}
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		t.Parallel()

		listings, ownerIndex, threads, _ := newMocks()
		svc := testService(listings, ownerIndex, threads, nil)

		if err := svc.Delete(authedCtx(uuid.New()), flatID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestService_List_ClampsPagination(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	listings := &listingRepoMock{
		ListFunc: func(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := testService(listings, nil, nil, nil)

	if _, err := svc.List(context.Background(), ListInput{Limit: 10000, Offset: -5}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotLimit != 200 {
		t.Errorf("limit = %d, want clamped 200", gotLimit)
	}
	if gotOffset != 0 {
		t.Errorf("offset = %d, want 0", gotOffset)
	}

	if _, err := svc.List(context.Background(), ListInput{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotLimit != 50 {
		t.Errorf("default limit = %d, want 50", gotLimit)
	}
}

func TestService_List_Filter(t *testing.T) {
	t.Parallel()

	var gotFilter domain.ListingFilter
	listings := &listingRepoMock{
		ListFunc: func(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error) {
			gotFilter = f
			return nil, nil
		},
	}
	svc := testService(listings, nil, nil, nil)

	want := domain.ListingFilter{
		City:       "Lyon",
		Mode:       domain.ListingModeRent,
		MinSurface: 30,
		Query:      "balcony",
	}
	if _, err := svc.List(context.Background(), ListInput{Filter: want}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotFilter != want {
		t.Errorf("filter = %+v, want %+v", gotFilter, want)
	}

	var vErr *domain.ValidationError
	if _, err := svc.List(context.Background(), ListInput{Filter: domain.ListingFilter{Type: "castle"}}); !errors.As(err, &vErr) || vErr.Errors[0].Field != "type" {
		t.Errorf("bad type err = %v, want ValidationError on type", err)
	}
	if _, err := svc.List(context.Background(), ListInput{Filter: domain.ListingFilter{Mode: "lease"}}); !errors.As(err, &vErr) || vErr.Errors[0].Field != "mode" {
		t.Errorf("bad mode err = %v, want ValidationError on mode", err)
	}
}

func TestService_ListByOwner(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	ownerIndex := &ownerIndexRepoMock{
		ListByOwnerFunc: func(ctx context.Context, id uuid.UUID) ([]domain.Listing, error) {
			if id != ownerID {
				t.Errorf("queried owner %s, want %s", id, ownerID)
			}
			return []domain.Listing{{FlatID: uuid.New(), OwnerID: ownerID}}, nil
		},
	}
	svc := testService(nil, ownerIndex, nil, nil)

	items, err := svc.ListByOwner(authedCtx(ownerID))
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}

	if _, err := svc.ListByOwner(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anon err = %v, want ErrUnauthorized", err)
	}
}
