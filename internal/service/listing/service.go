// Package listing implements the marketplace listing operations: the
// dual-location submission transaction, updates, deletion and queries.
package listing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/domain"
)

// listingRepo is the global listings collection.
type listingRepo interface {
	Create(ctx context.Context, l *domain.Listing) error
	Update(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, flatID uuid.UUID) error
	GetByID(ctx context.Context, flatID uuid.UUID) (*domain.Listing, error)
	List(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error)
}

// ownerIndexRepo is the per-owner listings index. It carries the same
// payload as the global collection, keyed by (owner, flat).
type ownerIndexRepo interface {
	Put(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, ownerID, flatID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error)
}

// threadRepo removes a listing's conversation thread on deletion.
type threadRepo interface {
	DeleteThread(ctx context.Context, flatID uuid.UUID) error
}

// imageUploader pushes a local file to the image host.
type imageUploader interface {
	Upload(ctx context.Context, file *domain.ImageFile) (string, error)
}

// Service implements listing operations.
type Service struct {
	log        *slog.Logger
	listings   listingRepo
	ownerIndex ownerIndexRepo
	threads    threadRepo
	uploader   imageUploader
	cfg        config.ListingConfig
	uploadCfg  config.UploadConfig
}

// NewService creates a new listing service instance.
func NewService(
	logger *slog.Logger,
	listings listingRepo,
	ownerIndex ownerIndexRepo,
	threads threadRepo,
	uploader imageUploader,
	cfg config.ListingConfig,
	uploadCfg config.UploadConfig,
) *Service {
	return &Service{
		log:        logger.With("service", "listing"),
		listings:   listings,
		ownerIndex: ownerIndex,
		threads:    threads,
		uploader:   uploader,
		cfg:        cfg,
		uploadCfg:  uploadCfg,
	}
}
