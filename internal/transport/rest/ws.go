package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/watch"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

type wsTokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, domain.UserRole, error)
}

// WatchHandler upgrades /ws connections and streams hub deltas to them.
// Every connection watches the global listings topic; an authenticated
// connection additionally watches its own favorites subtree.
type WatchHandler struct {
	hub       *watch.Hub
	validator wsTokenValidator
	origins   []string
	buffer    int
	log       *slog.Logger
}

// NewWatchHandler creates a WatchHandler.
func NewWatchHandler(hub *watch.Hub, validator wsTokenValidator, corsCfg config.CORSConfig, watchCfg config.WatchConfig, logger *slog.Logger) *WatchHandler {
	origins := strings.Split(corsCfg.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return &WatchHandler{
		hub:       hub,
		validator: validator,
		origins:   origins,
		buffer:    watchCfg.SubscriberBuffer,
		log:       logger.With("handler", "watch"),
	}
}

// deltaMessage is the wire form of a watch.Delta.
type deltaMessage struct {
	Topic string `json:"topic"`
	Op    string `json:"op"`
	Key   string `json:"key"`
	Doc   any    `json:"doc,omitempty"`
}

// ServeHTTP handles GET /ws. Browsers cannot attach an Authorization
// header to a websocket handshake, so a ?token= query parameter stands in
// for it when the middleware saw no identity.
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		if token := r.URL.Query().Get("token"); token != "" {
			userID, role, err := h.validator.ValidateToken(ctx, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx = ctxutil.WithUserID(ctx, userID)
			ctx = ctxutil.WithRole(ctx, role.String())
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.WarnContext(ctx, "websocket accept", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	listings := h.hub.Subscribe(watch.TopicListings, h.buffer)
	defer listings.Cancel()

	// A nil channel never fires in the select below, so anonymous
	// connections simply have no favorites case.
	var favorites *watch.Subscription
	var favCh <-chan watch.Delta
	if userID, ok := ctxutil.UserIDFromCtx(ctx); ok {
		favorites = h.hub.Subscribe(watch.FavoritesTopic(userID.String()), h.buffer)
		defer favorites.Cancel()
		favCh = favorites.Deltas()
	}

	// The read pump only detects the client going away; the stream is
	// one-directional.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(connCtx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-connCtx.Done():
			return
		case d, ok := <-listings.Deltas():
			if !ok {
				h.closeBroken(ctx, conn, listings)
				return
			}
			if err := wsjson.Write(connCtx, conn, toDeltaMessage(d)); err != nil {
				return
			}
		case d, ok := <-favCh:
			if !ok {
				h.closeBroken(ctx, conn, favorites)
				return
			}
			if err := wsjson.Write(connCtx, conn, toDeltaMessage(d)); err != nil {
				return
			}
		}
	}
}

// closeBroken ends a connection whose subscription was dropped. The client
// must reconnect and refetch; resuming mid-stream would hide the deltas
// lost while the buffer was full.
func (h *WatchHandler) closeBroken(ctx context.Context, conn *websocket.Conn, sub *watch.Subscription) {
	if err := sub.Err(); err != nil {
		h.log.WarnContext(ctx, "subscription dropped",
			slog.String("topic", sub.Topic()),
			slog.String("error", err.Error()))
	}
	conn.Close(websocket.StatusTryAgainLater, "stream overrun, reconnect") //nolint:errcheck
}

func toDeltaMessage(d watch.Delta) deltaMessage {
	return deltaMessage{
		Topic: d.Topic,
		Op:    string(d.Op),
		Key:   d.Key,
		Doc:   d.Doc,
	}
}
