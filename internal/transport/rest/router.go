package rest

import (
	"log/slog"
	"net/http"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/transport/middleware"
)

// authAttemptsPerMinute caps credential guessing per client IP.
const authAttemptsPerMinute = 20

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Auth      *AuthHandler
	Listings  *ListingHandler
	Favorites *FavoriteHandler
	Messages  *MessageHandler
	Users     *UserHandler
	Admin     *AdminHandler
	Health    *HealthHandler
	Watch     *WatchHandler
	Feed      *FeedHandler

	Validator   wsTokenValidator
	RateLimiter *middleware.RateLimiter
	CORS        config.CORSConfig
	Logger      *slog.Logger
}

// NewRouter builds the HTTP routing table with the full middleware stack.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health endpoints bypass rate limiting and auth entirely.
	mux.HandleFunc("GET /health", deps.Health.Health)
	mux.HandleFunc("GET /health/live", deps.Health.Live)
	mux.HandleFunc("GET /health/ready", deps.Health.Ready)

	authLimit := deps.RateLimiter.Limit(authAttemptsPerMinute)
	mux.Handle("POST /auth/register", authLimit(http.HandlerFunc(deps.Auth.Register)))
	mux.Handle("POST /auth/login", authLimit(http.HandlerFunc(deps.Auth.LoginWithPassword)))
	mux.Handle("POST /auth/login/google", authLimit(http.HandlerFunc(deps.Auth.LoginWithGoogle)))
	mux.Handle("POST /auth/refresh", authLimit(http.HandlerFunc(deps.Auth.Refresh)))
	mux.HandleFunc("POST /auth/logout", deps.Auth.Logout)

	mux.HandleFunc("GET /feed", deps.Feed.Get)

	mux.HandleFunc("GET /listings", deps.Listings.List)
	mux.HandleFunc("POST /listings", deps.Listings.Create)
	mux.HandleFunc("GET /listings/{id}", deps.Listings.Get)
	mux.HandleFunc("PUT /listings/{id}", deps.Listings.Update)
	mux.HandleFunc("DELETE /listings/{id}", deps.Listings.Delete)

	mux.HandleFunc("GET /listings/{id}/messages", deps.Messages.ListThread)
	mux.HandleFunc("POST /listings/{id}/messages", deps.Messages.Post)

	mux.HandleFunc("GET /favorites", deps.Favorites.List)
	mux.HandleFunc("POST /favorites/{id}/toggle", deps.Favorites.Toggle)

	mux.HandleFunc("GET /me", deps.Users.GetProfile)
	mux.HandleFunc("PATCH /me", deps.Users.UpdateProfile)
	mux.HandleFunc("DELETE /me", deps.Users.DeleteAccount)
	mux.HandleFunc("GET /me/listings", deps.Listings.Mine)

	mux.HandleFunc("GET /admin/users", deps.Admin.ListUsers)
	mux.HandleFunc("DELETE /admin/users/{id}", deps.Admin.DeleteUser)

	mux.Handle("GET /ws", deps.Watch)

	stack := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.CORS(deps.CORS),
		middleware.Auth(deps.Validator),
		middleware.Logger(deps.Logger),
	)

	return stack(mux)
}
