package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/service/feed"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

type feedOpener interface {
	Open(ctx context.Context, viewerID uuid.UUID) (*feed.Feed, error)
}

// FeedHandler serves the materialized marketplace view a client renders
// before its /ws stream takes over. Subscribing before the snapshot load
// inside Open means nothing written in between is missing from the result.
type FeedHandler struct {
	opener feedOpener
	log    *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(opener feedOpener, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{opener: opener, log: logger.With("handler", "feed")}
}

type feedItemResponse struct {
	listingResponse
	Favorited bool `json:"favorited"`
}

// Get handles GET /feed. Anonymous viewers get the listings with no
// favorite decoration.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := ctxutil.UserIDFromCtx(r.Context())

	f, err := h.opener.Open(r.Context(), viewerID)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}
	defer f.Close()

	listings := f.Listings()
	out := make([]feedItemResponse, 0, len(listings))
	for i := range listings {
		out = append(out, feedItemResponse{
			listingResponse: toListingResponse(&listings[i]),
			Favorited:       f.IsFavorite(listings[i].FlatID),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
