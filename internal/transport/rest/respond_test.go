package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flatmarket/backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRespondError_ValidationFields(t *testing.T) {
	t.Parallel()

	err := &domain.ValidationError{Errors: []domain.FieldError{
		{Field: "city", Message: "required"},
		{Field: "price", Message: "must be positive"},
	}}

	rec := httptest.NewRecorder()
	respondError(context.Background(), discardLogger(), rec, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(resp.Fields))
	}
	if resp.Fields[0].Field != "city" || resp.Fields[0].Message != "required" {
		t.Errorf("unexpected first field error: %+v", resp.Fields[0])
	}
}

func TestRespondError_AuthUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        *domain.AuthError
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid credentials",
			err:        domain.NewAuthError(domain.AuthCodeInvalidCredentials, domain.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Incorrect email or password.",
		},
		{
			name:       "email in use",
			err:        domain.NewAuthError(domain.AuthCodeEmailInUse, domain.ErrAlreadyExists),
			wantStatus: http.StatusConflict,
			wantBody:   "An account with this email already exists.",
		},
		{
			name:       "weak password",
			err:        domain.NewAuthError(domain.AuthCodeWeakPassword, domain.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantBody:   "Password must include letters, numbers, and special characters.",
		},
		{
			name:       "requires recent login",
			err:        domain.NewAuthError(domain.AuthCodeRequiresRecentLogin, domain.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Please sign in again to confirm this action.",
		},
		{
			name:       "unlisted code collapses to generic copy",
			err:        domain.NewAuthError(domain.AuthCode("auth/unmapped"), domain.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Authentication failed. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			respondError(context.Background(), discardLogger(), rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error != tt.wantBody {
				t.Errorf("expected message %q, got %q", tt.wantBody, resp.Error)
			}
			if resp.Code != string(tt.err.Code) {
				t.Errorf("expected code %q, got %q", tt.err.Code, resp.Code)
			}
		})
	}
}

func TestRespondError_UploadAndPersistence(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondError(context.Background(), discardLogger(), rec,
		&domain.UploadError{Filename: "photo.jpg", Err: errors.New("host unreachable")})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("upload failure: expected 502, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	respondError(context.Background(), discardLogger(), rec,
		&domain.PersistenceError{Location: "owner_listings", Op: "create", Err: errors.New("timeout")})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("persistence failure: expected 500, got %d", rec.Code)
	}
}

func TestRespondError_Sentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("opaque failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		respondError(context.Background(), discardLogger(), rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
