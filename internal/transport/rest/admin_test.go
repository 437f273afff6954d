package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/service/user"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

type adminUserServiceMock struct {
	ListUsersFunc  func(ctx context.Context, input user.ListUsersInput) ([]*domain.User, error)
	DeleteUserFunc func(ctx context.Context, targetID uuid.UUID) error
}

func (m *adminUserServiceMock) ListUsers(ctx context.Context, input user.ListUsersInput) ([]*domain.User, error) {
	return m.ListUsersFunc(ctx, input)
}

func (m *adminUserServiceMock) DeleteUser(ctx context.Context, targetID uuid.UUID) error {
	return m.DeleteUserFunc(ctx, targetID)
}

func adminRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := ctxutil.WithUserID(req.Context(), uuid.New())
	ctx = ctxutil.WithRole(ctx, domain.UserRoleAdmin.String())
	return req.WithContext(ctx)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			ListUsersFunc: func(_ context.Context, input user.ListUsersInput) ([]*domain.User, error) {
				if input.Limit != 10 || input.Offset != 20 {
					t.Errorf("expected limit 10 offset 20, got %+v", input)
				}
				return []*domain.User{
					{ID: uuid.New(), Email: "a@example.com", FirstName: "A", Role: domain.UserRoleUser},
					{ID: uuid.New(), Email: "b@example.com", FirstName: "B", Role: domain.UserRoleAdmin},
				}, nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		req := adminRequest(http.MethodGet, "/admin/users?limit=10&offset=20")
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp []userResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp) != 2 {
			t.Errorf("expected 2 users, got %d", len(resp))
		}
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			ListUsersFunc: func(context.Context, user.ListUsersInput) ([]*domain.User, error) {
				t.Error("service should not be called for non-admin")
				return nil, nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		ctx := ctxutil.WithUserID(req.Context(), uuid.New())
		ctx = ctxutil.WithRole(ctx, domain.UserRoleUser.String())
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req.WithContext(ctx))

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("anonymous forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			ListUsersFunc: func(context.Context, user.ListUsersInput) ([]*domain.User, error) {
				t.Error("service should not be called for anonymous")
				return nil, nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		rec := httptest.NewRecorder()

		h.ListUsers(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		targetID := uuid.New()
		var gotID uuid.UUID
		svc := &adminUserServiceMock{
			DeleteUserFunc: func(_ context.Context, id uuid.UUID) error {
				gotID = id
				return nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		req := adminRequest(http.MethodDelete, "/admin/users/"+targetID.String())
		req.SetPathValue("id", targetID.String())
		rec := httptest.NewRecorder()

		h.DeleteUser(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if gotID != targetID {
			t.Errorf("deleted %s, want %s", gotID, targetID)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			DeleteUserFunc: func(context.Context, uuid.UUID) error {
				t.Error("service should not be called for a bad id")
				return nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		req := adminRequest(http.MethodDelete, "/admin/users/not-a-uuid")
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.DeleteUser(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing target maps to 404", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			DeleteUserFunc: func(context.Context, uuid.UUID) error {
				return domain.ErrNotFound
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		targetID := uuid.New()
		req := adminRequest(http.MethodDelete, "/admin/users/"+targetID.String())
		req.SetPathValue("id", targetID.String())
		rec := httptest.NewRecorder()

		h.DeleteUser(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		t.Parallel()

		svc := &adminUserServiceMock{
			DeleteUserFunc: func(context.Context, uuid.UUID) error {
				t.Error("service should not be called for non-admin")
				return nil
			},
		}
		h := NewAdminHandler(svc, discardLogger())

		targetID := uuid.New()
		req := httptest.NewRequest(http.MethodDelete, "/admin/users/"+targetID.String(), nil)
		req.SetPathValue("id", targetID.String())
		ctx := ctxutil.WithUserID(req.Context(), uuid.New())
		ctx = ctxutil.WithRole(ctx, domain.UserRoleUser.String())
		rec := httptest.NewRecorder()

		h.DeleteUser(rec, req.WithContext(ctx))

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}
