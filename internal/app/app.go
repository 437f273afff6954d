// Package app assembles the server: configuration, logging, database,
// the delta hub, services, the HTTP router and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flatmarket/backend/internal/adapter/imagehost"
	"github.com/flatmarket/backend/internal/adapter/postgres"
	authmethodrepo "github.com/flatmarket/backend/internal/adapter/postgres/authmethod"
	favoriterepo "github.com/flatmarket/backend/internal/adapter/postgres/favorite"
	listingrepo "github.com/flatmarket/backend/internal/adapter/postgres/listing"
	messagerepo "github.com/flatmarket/backend/internal/adapter/postgres/message"
	ownerindexrepo "github.com/flatmarket/backend/internal/adapter/postgres/ownerindex"
	tokenrepo "github.com/flatmarket/backend/internal/adapter/postgres/token"
	userrepo "github.com/flatmarket/backend/internal/adapter/postgres/user"
	"github.com/flatmarket/backend/internal/adapter/provider/google"
	"github.com/flatmarket/backend/internal/auth"
	"github.com/flatmarket/backend/internal/config"
	authsvc "github.com/flatmarket/backend/internal/service/auth"
	favoritesvc "github.com/flatmarket/backend/internal/service/favorite"
	"github.com/flatmarket/backend/internal/service/feed"
	listingsvc "github.com/flatmarket/backend/internal/service/listing"
	messagesvc "github.com/flatmarket/backend/internal/service/message"
	usersvc "github.com/flatmarket/backend/internal/service/user"
	"github.com/flatmarket/backend/internal/transport/middleware"
	"github.com/flatmarket/backend/internal/transport/rest"
	"github.com/flatmarket/backend/internal/watch"
)

// tokenCleanupInterval is how often expired refresh tokens are purged.
const tokenCleanupInterval = time.Hour

// Run is the application entry point. It blocks until ctx is cancelled,
// then drains the HTTP server within the configured shutdown timeout.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("app: connect database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return fmt.Errorf("app: migrate: %w", err)
	}

	hub := watch.NewHub(logger)
	txManager := postgres.NewTxManager(pool)

	users := userrepo.New(pool)
	authMethods := authmethodrepo.New(pool)
	tokens := tokenrepo.New(pool)
	listings := listingrepo.New(pool, hub)
	ownerIndex := ownerindexrepo.New(pool)
	favorites := favoriterepo.New(pool, hub)
	messages := messagerepo.New(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	oauth := google.NewVerifier(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURI, logger)
	uploader := imagehost.NewClient(cfg.Upload, logger)

	authService := authsvc.NewService(logger, users, tokens, authMethods, txManager, oauth, jwtManager, cfg.Auth)
	listingService := listingsvc.NewService(logger, listings, ownerIndex, messages, uploader, cfg.Listing, cfg.Upload)
	favoriteService := favoritesvc.NewService(logger, favorites)
	messageService := messagesvc.NewService(logger, messages, listings, users)
	userService := usersvc.NewService(logger, users, authMethods, tokens, ownerIndex, listings, messages, favorites, txManager, cfg.Auth, cfg.Listing)
	synchronizer := feed.NewSynchronizer(logger, listings, favorites, hub, cfg.Watch.SubscriberBuffer, cfg.Listing.MaxPageSize)

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	router := rest.NewRouter(rest.RouterDeps{
		Auth:      rest.NewAuthHandler(authService, logger),
		Listings:  rest.NewListingHandler(listingService, logger),
		Favorites: rest.NewFavoriteHandler(favoriteService, logger),
		Messages:  rest.NewMessageHandler(messageService, logger),
		Users:     rest.NewUserHandler(userService, logger),
		Admin:     rest.NewAdminHandler(userService, logger),
		Health:    rest.NewHealthHandler(pool, BuildVersion()),
		Watch:     rest.NewWatchHandler(hub, authService, cfg.CORS, cfg.Watch, logger),
		Feed:      rest.NewFeedHandler(synchronizer, logger),

		Validator:   authService,
		RateLimiter: rateLimiter,
		CORS:        cfg.CORS,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down http server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(tokenCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				deleted, err := authService.CleanupExpiredTokens(gctx)
				if err != nil {
					logger.Error("token cleanup failed", slog.String("error", err.Error()))
					continue
				}
				if deleted > 0 {
					logger.Info("expired refresh tokens purged", slog.Int("deleted", deleted))
				}
			}
		}
	})

	return g.Wait()
}
