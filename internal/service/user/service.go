package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/domain"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

type authMethodRepo interface {
	GetByUserAndMethod(ctx context.Context, userID uuid.UUID, method domain.AuthMethodType) (*domain.AuthMethod, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) error
}

type tokenRepo interface {
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

type ownerIndexRepo interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Listing, error)
	DeleteAllByOwner(ctx context.Context, ownerID uuid.UUID) error
}

type listingRepo interface {
	Delete(ctx context.Context, flatID uuid.UUID) error
}

type threadRepo interface {
	DeleteThread(ctx context.Context, flatID uuid.UUID) error
	DeleteBySender(ctx context.Context, senderID uuid.UUID) error
}

type favoriteRepo interface {
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages user profiles, moderation listings and account removal.
type Service struct {
	log         *slog.Logger
	users       userRepo
	authMethods authMethodRepo
	tokens      tokenRepo
	ownerIndex  ownerIndexRepo
	listings    listingRepo
	threads     threadRepo
	favorites   favoriteRepo
	tx          txManager
	cfg         config.AuthConfig
	listingCfg  config.ListingConfig
}

// NewService creates a user service.
func NewService(
	logger *slog.Logger,
	users userRepo,
	authMethods authMethodRepo,
	tokens tokenRepo,
	ownerIndex ownerIndexRepo,
	listings listingRepo,
	threads threadRepo,
	favorites favoriteRepo,
	tx txManager,
	cfg config.AuthConfig,
	listingCfg config.ListingConfig,
) *Service {
	return &Service{
		log:         logger.With("service", "user"),
		users:       users,
		authMethods: authMethods,
		tokens:      tokens,
		ownerIndex:  ownerIndex,
		listings:    listings,
		threads:     threads,
		favorites:   favorites,
		tx:          tx,
		cfg:         cfg,
		listingCfg:  listingCfg,
	}
}
