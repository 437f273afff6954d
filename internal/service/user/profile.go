package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/auth"
	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// GetProfile returns the authenticated user's profile.
func (s *Service) GetProfile(ctx context.Context) (*domain.User, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user.GetProfile: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the given changes to the authenticated user's
// profile. Email and password changes require the current password when the
// account has one; the profile document and the credential record are
// updated in one transaction so they never disagree.
func (s *Service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user.UpdateProfile: %w", err)
	}

	sensitive := input.Email != nil || input.NewPassword != nil
	if sensitive {
		if err := s.reauthenticate(ctx, userID, input.CurrentPassword); err != nil {
			return nil, err
		}
	}

	var newHash *string
	if input.NewPassword != nil {
		if !auth.StrongPassword(*input.NewPassword) {
			return nil, domain.NewAuthError(domain.AuthCodeWeakPassword,
				fmt.Errorf("new password does not meet strength rules"))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.NewPassword), s.cfg.PasswordHashCost)
		if err != nil {
			return nil, fmt.Errorf("user.UpdateProfile hash password: %w", err)
		}
		h := string(hash)
		newHash = &h
	}

	if input.FirstName != nil {
		u.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		u.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	u.UpdatedAt = time.Now()

	var updated *domain.User
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.users.Update(txCtx, u)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if newHash != nil {
			if err := s.authMethods.UpdatePasswordHash(txCtx, userID, *newHash); err != nil {
				return fmt.Errorf("update password hash: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewAuthError(domain.AuthCodeEmailInUse, err)
		}
		return nil, fmt.Errorf("user.UpdateProfile: %w", err)
	}

	s.log.InfoContext(ctx, "profile updated",
		slog.String("user_id", userID.String()),
		slog.Bool("password_changed", newHash != nil))

	return updated, nil
}

// reauthenticate re-checks the caller's password before a sensitive
// operation. Accounts without a password credential (federated sign-in only)
// pass; a valid session token already proves the provider login.
func (s *Service) reauthenticate(ctx context.Context, userID uuid.UUID, currentPassword string) error {
	am, err := s.authMethods.GetByUserAndMethod(ctx, userID, domain.AuthMethodPassword)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("user.reauthenticate: %w", err)
	}
	if am.PasswordHash == nil || currentPassword == "" {
		return domain.NewAuthError(domain.AuthCodeRequiresRecentLogin, domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*am.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.NewAuthError(domain.AuthCodeRequiresRecentLogin, domain.ErrUnauthorized)
	}
	return nil
}
