package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// ListInput holds pagination and filter parameters for List.
type ListInput struct {
	Limit  int
	Offset int
	Filter domain.ListingFilter
}

// Get returns one listing by ID.
func (s *Service) Get(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, flatID)
	if err != nil {
		return nil, fmt.Errorf("listing.Get: %w", err)
	}
	return l, nil
}

// List returns listings ordered by creation time, newest first. The
// filter's enum fields must be valid values when set.
func (s *Service) List(ctx context.Context, input ListInput) ([]domain.Listing, error) {
	if t := input.Filter.Type; t != "" && !t.IsValid() {
		return nil, &domain.ValidationError{Errors: []domain.FieldError{
			{Field: "type", Message: "unknown property type"},
		}}
	}
	if m := input.Filter.Mode; m != "" && !m.IsValid() {
		return nil, &domain.ValidationError{Errors: []domain.FieldError{
			{Field: "mode", Message: "unknown listing mode"},
		}}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	items, err := s.listings.List(ctx, input.Filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing.List: %w", err)
	}
	return items, nil
}

// ListByOwner returns the calling user's own listings from the per-owner
// index.
func (s *Service) ListByOwner(ctx context.Context) ([]domain.Listing, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	items, err := s.ownerIndex.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing.ListByOwner: %w", err)
	}
	return items, nil
}
