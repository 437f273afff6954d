// Package favorite implements per-user favorite marks on listings.
package favorite

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
)

// favoriteRepo stores favorite marks keyed by (user, flat).
type favoriteRepo interface {
	Get(ctx context.Context, userID, flatID uuid.UUID) (*domain.FavoriteMark, error)
	Create(ctx context.Context, mark *domain.FavoriteMark) error
	Delete(ctx context.Context, userID, flatID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteMark, error)
}

// Service implements favorite operations.
type Service struct {
	log       *slog.Logger
	favorites favoriteRepo
}

// NewService creates a new favorite service instance.
func NewService(logger *slog.Logger, favorites favoriteRepo) *Service {
	return &Service{
		log:       logger.With("service", "favorite"),
		favorites: favorites,
	}
}
