// Package message implements per-listing conversation threads with
// asymmetric visibility: the listing owner reads everything, a visitor
// reads only what they wrote.
package message

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
)

// messageRepo stores thread messages.
type messageRepo interface {
	Create(ctx context.Context, m *domain.Message) error
	ListByFlat(ctx context.Context, flatID uuid.UUID) ([]domain.Message, error)
}

// listingRepo resolves a thread's listing to find its owner.
type listingRepo interface {
	GetByID(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error)
}

// userRepo resolves the sender's display identity at post time.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Service implements messaging operations.
type Service struct {
	log      *slog.Logger
	messages messageRepo
	listings listingRepo
	users    userRepo
}

// NewService creates a new message service instance.
func NewService(logger *slog.Logger, messages messageRepo, listings listingRepo, users userRepo) *Service {
	return &Service{
		log:      logger.With("service", "message"),
		messages: messages,
		listings: listings,
		users:    users,
	}
}
