package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/adapter/postgres/testhelper"
	"github.com/flatmarket/backend/internal/adapter/postgres/token"
	"github.com/flatmarket/backend/internal/domain"
)

func seedToken(userID uuid.UUID, expiresAt time.Time) *domain.RefreshToken {
	return &domain.RefreshToken{
		UserID:    userID,
		TokenHash: "hash-" + uuid.New().String(),
		ExpiresAt: expiresAt.Truncate(time.Microsecond),
	}
}

func TestRepo_CreateAndGetByHash(t *testing.T) {
	t.Parallel()
	repo := token.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	tok := seedToken(uuid.New(), time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tok.ID == uuid.Nil {
		t.Error("ID should be assigned on create")
	}

	got, err := repo.GetByHash(ctx, tok.TokenHash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.UserID != tok.UserID || !got.ExpiresAt.Equal(tok.ExpiresAt) {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.IsRevoked() {
		t.Error("fresh token should not be revoked")
	}
}

func TestRepo_GetByHash_NotFound(t *testing.T) {
	t.Parallel()
	repo := token.New(testhelper.SetupTestDB(t))

	_, err := repo.GetByHash(context.Background(), "missing-"+uuid.New().String())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Revoked tokens stay retrievable so the refresh flow can tell "revoked,
// possibly stolen" apart from "never existed".
func TestRepo_RevokeByID_KeepsRowForReuseDetection(t *testing.T) {
	t.Parallel()
	repo := token.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	tok := seedToken(uuid.New(), time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.RevokeByID(ctx, tok.ID); err != nil {
		t.Fatalf("RevokeByID: %v", err)
	}

	got, err := repo.GetByHash(ctx, tok.TokenHash)
	if err != nil {
		t.Fatalf("GetByHash after revoke: %v", err)
	}
	if !got.IsRevoked() {
		t.Error("token should be revoked")
	}
}

func TestRepo_RevokeAllByUser(t *testing.T) {
	t.Parallel()
	repo := token.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	userID := uuid.New()
	var hashes []string
	for range 3 {
		tok := seedToken(userID, time.Now().UTC().Add(24*time.Hour))
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
		hashes = append(hashes, tok.TokenHash)
	}
	otherTok := seedToken(uuid.New(), time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, otherTok); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	if err := repo.RevokeAllByUser(ctx, userID); err != nil {
		t.Fatalf("RevokeAllByUser: %v", err)
	}

	for _, h := range hashes {
		got, err := repo.GetByHash(ctx, h)
		if err != nil {
			t.Fatalf("GetByHash: %v", err)
		}
		if !got.IsRevoked() {
			t.Error("token should be revoked")
		}
	}

	other, err := repo.GetByHash(ctx, otherTok.TokenHash)
	if err != nil {
		t.Fatalf("GetByHash other: %v", err)
	}
	if other.IsRevoked() {
		t.Error("other user's token should stay live")
	}
}

func TestRepo_DeleteExpired(t *testing.T) {
	t.Parallel()
	repo := token.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	userID := uuid.New()
	expired := seedToken(userID, time.Now().UTC().Add(-time.Hour))
	live := seedToken(userID, time.Now().UTC().Add(24*time.Hour))
	for _, tok := range []*domain.RefreshToken{expired, live} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}

	if _, err := repo.GetByHash(ctx, expired.TokenHash); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired token still present: %v", err)
	}
	if _, err := repo.GetByHash(ctx, live.TokenHash); err != nil {
		t.Fatalf("live token lost: %v", err)
	}
}
