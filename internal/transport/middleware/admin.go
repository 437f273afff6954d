package middleware

import (
	"context"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// RequireAdmin returns domain.ErrForbidden unless the context user carries
// the admin role. Call from handlers, not as HTTP middleware, so routes can
// report the failure through their own error mapping.
func RequireAdmin(ctx context.Context) error {
	if ctxutil.RoleFromCtx(ctx) != domain.UserRoleAdmin.String() {
		return domain.ErrForbidden
	}
	return nil
}
