package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/service/user"
	"github.com/flatmarket/backend/internal/transport/middleware"
)

type adminUserService interface {
	ListUsers(ctx context.Context, input user.ListUsersInput) ([]*domain.User, error)
	DeleteUser(ctx context.Context, targetID uuid.UUID) error
}

// AdminHandler serves admin REST endpoints.
type AdminHandler struct {
	users adminUserService
	log   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(users adminUserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		users: users,
		log:   logger.With("handler", "admin"),
	}
}

// ListUsers returns the registered accounts.
// GET /admin/users?limit=50&offset=0
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var input user.ListUsersInput
	if v := r.URL.Query().Get("limit"); v != "" {
		input.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		input.Offset, _ = strconv.Atoi(v)
	}

	users, err := h.users.ListUsers(r.Context(), input)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, out)
}

// DeleteUser removes a user's account and all their data as a moderation
// action.
// DELETE /admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), targetID); err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if err := middleware.RequireAdmin(r.Context()); err != nil {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
