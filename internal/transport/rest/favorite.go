package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
)

type favoriteService interface {
	Toggle(ctx context.Context, flatID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]domain.FavoriteMark, error)
}

// FavoriteHandler serves favorites REST endpoints.
type FavoriteHandler struct {
	svc favoriteService
	log *slog.Logger
}

// NewFavoriteHandler creates a FavoriteHandler.
func NewFavoriteHandler(svc favoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{svc: svc, log: logger.With("handler", "favorite")}
}

type favoriteResponse struct {
	FlatID    string    `json:"flatId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Toggle handles POST /favorites/{id}/toggle. The response reports the
// resulting state rather than the action, so a stale click stays safe.
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	favorited, err := h.svc.Toggle(r.Context(), flatID)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// List handles GET /favorites.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	marks, err := h.svc.List(r.Context())
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	out := make([]favoriteResponse, 0, len(marks))
	for _, m := range marks {
		out = append(out, favoriteResponse{
			FlatID:    m.FlatID.String(),
			CreatedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
