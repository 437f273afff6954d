package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// Update rewrites a listing from an edited draft. Only the owner may
// update; FlatID, OwnerID and CreatedAt are never touched. Both locations
// receive the new payload, with the same no-rollback behavior as Submit.
func (s *Service) Update(ctx context.Context, flatID uuid.UUID, draft *domain.ListingDraft) (*domain.Listing, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	l, err := s.listings.GetByID(ctx, flatID)
	if err != nil {
		return nil, fmt.Errorf("listing.Update get: %w", err)
	}
	if l.OwnerID != userID {
		return nil, domain.ErrForbidden
	}

	imageURLs, err := s.resolveImages(ctx, draft.Images)
	if err != nil {
		return nil, fmt.Errorf("listing.Update: %w", err)
	}

	l.ApplyDraft(draft, imageURLs)

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, &domain.PersistenceError{Location: "listings", Op: "update", Err: err}
	}
	if err := s.ownerIndex.Put(ctx, l); err != nil {
		s.log.ErrorContext(ctx, "owner index write failed after global write",
			slog.String("flat_id", flatID.String()),
			slog.String("error", err.Error()))
		return nil, &domain.PersistenceError{Location: "owner_listings", Op: "update", Err: err}
	}

	s.log.InfoContext(ctx, "listing updated", slog.String("flat_id", flatID.String()))

	return l, nil
}
