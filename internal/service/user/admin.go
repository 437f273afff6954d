package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// ListUsers returns a page of all accounts. Admin only.
func (s *Service) ListUsers(ctx context.Context, input ListUsersInput) ([]*domain.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.listingCfg.PageSize
	}
	if limit > s.listingCfg.MaxPageSize {
		limit = s.listingCfg.MaxPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user.ListUsers: %w", err)
	}
	return users, nil
}

// DeleteUser removes another user's account as a moderation action. Admin
// only; no password re-check, since the admin is not the account holder.
// The target must exist, then the same best-effort cascade as self-service
// deletion runs against it.
func (s *Service) DeleteUser(ctx context.Context, targetID uuid.UUID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("user.DeleteUser: %w", err)
	}

	adminID, _ := ctxutil.UserIDFromCtx(ctx)
	s.log.InfoContext(ctx, "admin deleting user",
		slog.String("admin_id", adminID.String()),
		slog.String("target_id", target.ID.String()))

	s.removeUserData(ctx, target.ID)
	return nil
}

func requireAdmin(ctx context.Context) error {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	if ctxutil.RoleFromCtx(ctx) != domain.UserRoleAdmin.String() {
		return domain.ErrForbidden
	}
	return nil
}
