package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/adapter/postgres/testhelper"
)

// userExists checks whether a user row with the given ID exists in the database.
func userExists(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("userExists query: %v", err)
	}
	return exists
}

func insertUser(ctx context.Context, q postgres.Querier, userID uuid.UUID, email string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO users (id, email, first_name, last_name, created_at, updated_at)
		 VALUES ($1, $2, 'Tx', 'Test', now(), now())`,
		userID, email,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	userID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), userID,
			"commit-"+userID.String()[:8]+"@example.com")
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !userExists(t, pool, userID) {
		t.Fatal("expected user to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	userID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), userID,
			"rollback-"+userID.String()[:8]+"@example.com"); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if userExists(t, pool, userID) {
		t.Fatal("expected user NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	userID := uuid.New()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if execErr := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), userID,
				"panic-"+userID.String()[:8]+"@example.com"); execErr != nil {
				t.Fatalf("insert inside tx failed: %v", execErr)
			}
			panic("boom")
		})
	}()

	if userExists(t, pool, userID) {
		t.Fatal("expected user NOT to exist after panicked transaction")
	}
}
