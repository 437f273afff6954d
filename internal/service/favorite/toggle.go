package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// Toggle flips the caller's favorite mark on a listing. Anonymous callers
// get ErrUnauthorized so the surface can route them to sign-in. The store
// is the source of truth: the new state is whatever the write produced,
// there is no optimistic local flip.
func (s *Service) Toggle(ctx context.Context, flatID uuid.UUID) (favorited bool, err error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}

	_, err = s.favorites.Get(ctx, userID, flatID)
	switch {
	case err == nil:
		if err := s.favorites.Delete(ctx, userID, flatID); err != nil {
			return false, fmt.Errorf("favorite.Toggle delete: %w", err)
		}
		s.log.DebugContext(ctx, "favorite removed",
			slog.String("user_id", userID.String()),
			slog.String("flat_id", flatID.String()))
		return false, nil

	case errors.Is(err, domain.ErrNotFound):
		mark := &domain.FavoriteMark{
			UserID:    userID,
			FlatID:    flatID,
			CreatedAt: time.Now(),
		}
		if err := s.favorites.Create(ctx, mark); err != nil {
			// Lost race with another toggle of the same pair.
			if errors.Is(err, domain.ErrAlreadyExists) {
				return true, nil
			}
			return false, fmt.Errorf("favorite.Toggle create: %w", err)
		}
		s.log.DebugContext(ctx, "favorite added",
			slog.String("user_id", userID.String()),
			slog.String("flat_id", flatID.String()))
		return true, nil

	default:
		return false, fmt.Errorf("favorite.Toggle get: %w", err)
	}
}

// List returns the caller's favorite marks.
func (s *Service) List(ctx context.Context) ([]domain.FavoriteMark, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	marks, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("favorite.List: %w", err)
	}
	return marks, nil
}
