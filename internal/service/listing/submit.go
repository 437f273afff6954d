package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// Submit turns a valid draft into a persisted listing. Pending images are
// uploaded first; any upload failure aborts before a single persistence
// write. The record is then written to the global collection and to the
// owner's index with the same ID and payload. A failure between the two
// writes is NOT rolled back: the returned PersistenceError names the
// location that failed and the caller retries the whole submission.
func (s *Service) Submit(ctx context.Context, draft *domain.ListingDraft) (*domain.Listing, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := domain.ValidateDraft(draft); err != nil {
		return nil, err
	}

	imageURLs, err := s.resolveImages(ctx, draft.Images)
	if err != nil {
		return nil, fmt.Errorf("listing.Submit: %w", err)
	}

	l := &domain.Listing{
		FlatID:    uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	l.ApplyDraft(draft, imageURLs)

	if err := s.listings.Create(ctx, l); err != nil {
		return nil, &domain.PersistenceError{Location: "listings", Op: "create", Err: err}
	}
	if err := s.ownerIndex.Put(ctx, l); err != nil {
		s.log.ErrorContext(ctx, "owner index write failed after global write",
			slog.String("flat_id", l.FlatID.String()),
			slog.String("error", err.Error()))
		return nil, &domain.PersistenceError{Location: "owner_listings", Op: "create", Err: err}
	}

	s.log.InfoContext(ctx, "listing submitted",
		slog.String("flat_id", l.FlatID.String()),
		slog.String("owner_id", ownerID.String()))

	return l, nil
}

// resolveImages produces one URL per draft image, preserving positions.
// Already-remote entries pass through untouched; local files are uploaded
// concurrently but land at their own index.
func (s *Service) resolveImages(ctx context.Context, images []domain.ImageRef) ([]string, error) {
	urls := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	if s.uploadCfg.MaxConcurrent > 0 {
		g.SetLimit(s.uploadCfg.MaxConcurrent)
	}

	for i, ref := range images {
		if ref.Uploaded() {
			urls[i] = ref.URL
			continue
		}
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, ref.File)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
