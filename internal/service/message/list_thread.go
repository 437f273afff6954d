package message

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// ListThread returns a listing's conversation as the caller is allowed to
// see it, oldest first. The owner sees every message; anyone else sees
// only their own. The filter runs here, never in the surface layer, so a
// visitor's view cannot leak other visitors' messages.
func (s *Service) ListThread(ctx context.Context, flatID uuid.UUID) ([]domain.Message, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	l, err := s.listings.GetByID(ctx, flatID)
	if err != nil {
		return nil, fmt.Errorf("message.ListThread get listing: %w", err)
	}

	all, err := s.messages.ListByFlat(ctx, flatID)
	if err != nil {
		return nil, fmt.Errorf("message.ListThread list: %w", err)
	}

	visible := make([]domain.Message, 0, len(all))
	for _, m := range all {
		if m.VisibleTo(viewerID, l.OwnerID) {
			visible = append(visible, m)
		}
	}
	return visible, nil
}
