package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// Delete removes a listing from both locations along with its conversation
// thread. The owner may delete their own listing; admins may delete any.
func (s *Service) Delete(ctx context.Context, flatID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	l, err := s.listings.GetByID(ctx, flatID)
	if err != nil {
		return fmt.Errorf("listing.Delete get: %w", err)
	}

	role := ctxutil.RoleFromCtx(ctx)
	if l.OwnerID != userID && role != domain.UserRoleAdmin.String() {
		return domain.ErrForbidden
	}

	if err := s.listings.Delete(ctx, flatID); err != nil {
		return &domain.PersistenceError{Location: "listings", Op: "delete", Err: err}
	}
	if err := s.ownerIndex.Delete(ctx, l.OwnerID, flatID); err != nil {
		return &domain.PersistenceError{Location: "owner_listings", Op: "delete", Err: err}
	}
	if err := s.threads.DeleteThread(ctx, flatID); err != nil {
		return fmt.Errorf("listing.Delete thread: %w", err)
	}

	s.log.InfoContext(ctx, "listing deleted",
		slog.String("flat_id", flatID.String()),
		slog.String("deleted_by", userID.String()))

	return nil
}
