// Package feed keeps a live, ordered view of the listing marketplace and
// the viewer's favorite set, fed by store deltas.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
)

// listingRepo provides the initial snapshot.
type listingRepo interface {
	List(ctx context.Context, f domain.ListingFilter, limit, offset int) ([]domain.Listing, error)
}

// favoriteRepo provides the viewer's initial favorite set.
type favoriteRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteMark, error)
}

// Synchronizer opens live feeds. One Feed per viewer session.
type Synchronizer struct {
	log       *slog.Logger
	listings  listingRepo
	favorites favoriteRepo
	hub       *watch.Hub
	buffer    int
	snapshot  int
}

// NewSynchronizer creates a synchronizer. buffer sizes each subscription
// channel; snapshotLimit caps the initial listing load.
func NewSynchronizer(logger *slog.Logger, listings listingRepo, favorites favoriteRepo, hub *watch.Hub, buffer, snapshotLimit int) *Synchronizer {
	return &Synchronizer{
		log:       logger.With("service", "feed"),
		listings:  listings,
		favorites: favorites,
		hub:       hub,
		buffer:    buffer,
		snapshot:  snapshotLimit,
	}
}

// Feed is a viewer's live marketplace view: listings newest first plus the
// viewer's favorite set. Once Err returns non-nil the feed is dead and
// stays dead; callers must open a fresh one.
type Feed struct {
	mu        sync.RWMutex
	listings  []domain.Listing
	favorites map[uuid.UUID]struct{}
	err       error

	cancel func()
	done   chan struct{}
}

// Open loads the snapshot and starts applying deltas. A uuid.Nil viewerID
// opens an anonymous feed with no favorite set. The feed must be Closed
// when the view goes away or the signed-in identity changes.
func (s *Synchronizer) Open(ctx context.Context, viewerID uuid.UUID) (*Feed, error) {
	// Subscribe before the snapshot so no write in between is lost.
	listingSub := s.hub.Subscribe(watch.TopicListings, s.buffer)
	var favoriteSub *watch.Subscription
	if viewerID != uuid.Nil {
		favoriteSub = s.hub.Subscribe(watch.FavoritesTopic(viewerID.String()), s.buffer)
	}

	initial, err := s.listings.List(ctx, domain.ListingFilter{}, s.snapshot, 0)
	if err != nil {
		listingSub.Cancel()
		if favoriteSub != nil {
			favoriteSub.Cancel()
		}
		return nil, fmt.Errorf("feed.Open listings: %w", err)
	}

	favSet := make(map[uuid.UUID]struct{})
	if viewerID != uuid.Nil {
		marks, err := s.favorites.ListByUser(ctx, viewerID)
		if err != nil {
			listingSub.Cancel()
			favoriteSub.Cancel()
			return nil, fmt.Errorf("feed.Open favorites: %w", err)
		}
		for _, m := range marks {
			favSet[m.FlatID] = struct{}{}
		}
	}

	feedCtx, cancel := context.WithCancel(ctx)
	f := &Feed{
		listings:  sortNewestFirst(initial),
		favorites: favSet,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go f.run(feedCtx, s.log, listingSub, favoriteSub)

	return f, nil
}

// Listings returns the current view, newest first.
func (f *Feed) Listings() []domain.Listing {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.Listing(nil), f.listings...)
}

// IsFavorite reports whether the viewer has marked the listing. Marks for
// listings absent from the view still count; they simply have nothing to
// decorate yet.
func (f *Feed) IsFavorite(flatID uuid.UUID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.favorites[flatID]
	return ok
}

// Err returns the sticky failure state, nil while the feed is healthy.
func (f *Feed) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

// Close releases the feed's subscriptions and waits for the apply loop to
// stop. Idempotent.
func (f *Feed) Close() {
	f.cancel()
	<-f.done
}

func (f *Feed) run(ctx context.Context, log *slog.Logger, listingSub, favoriteSub *watch.Subscription) {
	defer close(f.done)
	defer listingSub.Cancel()
	favoriteDeltas := (<-chan watch.Delta)(nil)
	if favoriteSub != nil {
		defer favoriteSub.Cancel()
		favoriteDeltas = favoriteSub.Deltas()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case d, ok := <-listingSub.Deltas():
			if !ok {
				f.fail(log, listingSub)
				return
			}
			f.applyListing(d)

		case d, ok := <-favoriteDeltas:
			if !ok {
				f.fail(log, favoriteSub)
				return
			}
			f.applyFavorite(d)
		}
	}
}

func (f *Feed) fail(log *slog.Logger, sub *watch.Subscription) {
	err := sub.Err()
	if err == nil {
		// Cancelled underneath us, not a failure.
		return
	}
	f.mu.Lock()
	f.err = &domain.SubscriptionError{Topic: sub.Topic(), Err: err}
	f.mu.Unlock()
	log.Warn("feed stream broken", "topic", sub.Topic(), "error", err.Error())
}

func (f *Feed) applyListing(d watch.Delta) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch d.Op {
	case watch.OpAdded, watch.OpModified:
		l, ok := d.Doc.(*domain.Listing)
		if !ok {
			return
		}
		replaced := false
		for i := range f.listings {
			if f.listings[i].FlatID == l.FlatID {
				f.listings[i] = *l
				replaced = true
				break
			}
		}
		if !replaced {
			f.listings = append(f.listings, *l)
		}
		f.listings = sortNewestFirst(f.listings)

	case watch.OpRemoved:
		for i := range f.listings {
			if f.listings[i].FlatID.String() == d.Key {
				f.listings = append(f.listings[:i], f.listings[i+1:]...)
				break
			}
		}
	}
}

func (f *Feed) applyFavorite(d watch.Delta) {
	flatID, err := uuid.Parse(d.Key)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch d.Op {
	case watch.OpAdded, watch.OpModified:
		f.favorites[flatID] = struct{}{}
	case watch.OpRemoved:
		delete(f.favorites, flatID)
	}
}

func sortNewestFirst(items []domain.Listing) []domain.Listing {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}
