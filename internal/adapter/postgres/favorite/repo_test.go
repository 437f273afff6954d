package favorite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/adapter/postgres/favorite"
	"github.com/flatmarket/backend/internal/adapter/postgres/testhelper"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
)

func newRepo(t *testing.T) (*favorite.Repo, *watch.Hub) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	hub := watch.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return favorite.New(pool, hub), hub
}

func mark(userID uuid.UUID) *domain.FavoriteMark {
	return &domain.FavoriteMark{
		UserID:    userID,
		FlatID:    uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRepo_CreateGetDelete(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	m := mark(userID)

	if _, err := repo.Get(ctx, userID, m.FlatID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get before create: err = %v, want ErrNotFound", err)
	}

	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, userID, m.FlatID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, m.CreatedAt)
	}

	if err := repo.Delete(ctx, userID, m.FlatID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, userID, m.FlatID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestRepo_DuplicateCreate(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	m := mark(uuid.New())
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, m); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRepo_WritesPublishOnUserTopic(t *testing.T) {
	t.Parallel()
	repo, hub := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	sub := hub.Subscribe(watch.FavoritesTopic(userID.String()), 16)
	defer sub.Cancel()

	// A second user's stream must stay silent.
	other := hub.Subscribe(watch.FavoritesTopic(uuid.New().String()), 16)
	defer other.Cancel()

	m := mark(userID)
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, userID, m.FlatID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, want := range []watch.Op{watch.OpAdded, watch.OpRemoved} {
		select {
		case d := <-sub.Deltas():
			if d.Op != want || d.Key != m.FlatID.String() {
				t.Fatalf("delta = %s %s, want %s %s", d.Op, d.Key, want, m.FlatID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s delta", want)
		}
	}

	select {
	case d := <-other.Deltas():
		t.Fatalf("unexpected delta on other user's topic: %+v", d)
	default:
	}
}

func TestRepo_ListByUserAndCascade(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	for range 3 {
		if err := repo.Create(ctx, mark(userID)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	keeper := mark(uuid.New())
	if err := repo.Create(ctx, keeper); err != nil {
		t.Fatalf("Create keeper: %v", err)
	}

	marks, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(marks) != 3 {
		t.Fatalf("marks = %d, want 3", len(marks))
	}

	if err := repo.DeleteAllByUser(ctx, userID); err != nil {
		t.Fatalf("DeleteAllByUser: %v", err)
	}

	marks, err = repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser after cascade: %v", err)
	}
	if len(marks) != 0 {
		t.Errorf("marks after cascade = %d, want 0", len(marks))
	}

	if _, err := repo.Get(ctx, keeper.UserID, keeper.FlatID); err != nil {
		t.Errorf("other user's mark lost: %v", err)
	}
}
