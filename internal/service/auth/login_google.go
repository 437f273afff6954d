package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/auth"
	"github.com/flatmarket/backend/internal/domain"
)

// LoginWithGoogle signs in with a Google authorization code. Three cases:
// a known Google identity logs straight in; an account registered with the
// same email gets the Google method linked; otherwise a new account is
// created from the provider profile.
func (s *Service) LoginWithGoogle(ctx context.Context, input LoginGoogleInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if !s.cfg.HasGoogleOAuth() {
		return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials,
			fmt.Errorf("google sign-in not configured"))
	}

	identity, err := s.oauth.VerifyCode(ctx, input.Code)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials, err)
	}
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))

	am, err := s.authMethods.GetByOAuth(ctx, domain.AuthMethodGoogle, identity.ProviderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("auth.LoginWithGoogle get auth method: %w", err)
	}

	if am != nil {
		user, err := s.users.GetByID(ctx, am.UserID)
		if err != nil {
			return nil, fmt.Errorf("auth.LoginWithGoogle get user: %w", err)
		}

		if profileChanged(user, identity) {
			user, err = s.users.UpdateProfileFromProvider(ctx, user.ID, identity.Name, identity.AvatarURL)
			if err != nil {
				return nil, fmt.Errorf("auth.LoginWithGoogle update profile: %w", err)
			}
		}

		result, err := s.issueTokens(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("auth.LoginWithGoogle issue tokens: %w", err)
		}

		s.log.InfoContext(ctx, "user logged in via google",
			slog.String("user_id", user.ID.String()))

		return result, nil
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("auth.LoginWithGoogle get user by email: %w", err)
	}

	if user != nil {
		// Same email registered with a password: link the Google method.
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			newAM := &domain.AuthMethod{
				UserID:     user.ID,
				Method:     domain.AuthMethodGoogle,
				ProviderID: &identity.ProviderID,
			}
			if _, err := s.authMethods.Create(txCtx, newAM); err != nil {
				return fmt.Errorf("link google: %w", err)
			}
			return nil
		})
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent link already created the method; anything else
			// is a real failure.
			return nil, fmt.Errorf("auth.LoginWithGoogle link: %w", err)
		}

		result, err := s.issueTokens(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("auth.LoginWithGoogle issue tokens: %w", err)
		}

		s.log.InfoContext(ctx, "google linked to existing account",
			slog.String("user_id", user.ID.String()))

		return result, nil
	}

	user, err = s.registerGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("auth.LoginWithGoogle issue tokens: %w", err)
	}

	s.log.InfoContext(ctx, "user registered via google",
		slog.String("user_id", user.ID.String()))

	return result, nil
}

// registerGoogleUser creates a user + google auth method in a transaction.
func (s *Service) registerGoogleUser(ctx context.Context, identity *auth.OAuthIdentity) (*domain.User, error) {
	first, last := splitProviderName(identity.Name)

	var createdUser *domain.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := time.Now()
		newUser := &domain.User{
			ID:        uuid.New(),
			Email:     identity.Email,
			FirstName: first,
			LastName:  last,
			AvatarURL: identity.AvatarURL,
			Role:      domain.UserRoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}

		user, err := s.users.Create(txCtx, newUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		am := &domain.AuthMethod{
			UserID:     user.ID,
			Method:     domain.AuthMethodGoogle,
			ProviderID: &identity.ProviderID,
		}
		if _, err := s.authMethods.Create(txCtx, am); err != nil {
			return fmt.Errorf("create auth method: %w", err)
		}

		createdUser = user
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a race with a concurrent first login; pick up the winner.
			am, retryErr := s.authMethods.GetByOAuth(ctx, domain.AuthMethodGoogle, identity.ProviderID)
			if retryErr == nil {
				if user, retryErr := s.users.GetByID(ctx, am.UserID); retryErr == nil {
					return user, nil
				}
			}
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("auth.LoginWithGoogle register user: %w", err)
	}

	return createdUser, nil
}

// splitProviderName turns a provider display name into first/last parts.
func splitProviderName(name *string) (first, last string) {
	if name == nil {
		return "", ""
	}
	parts := strings.Fields(*name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// profileChanged checks if the provider profile differs from the stored one.
func profileChanged(user *domain.User, identity *auth.OAuthIdentity) bool {
	if identity.Name != nil {
		first, last := splitProviderName(identity.Name)
		if first != user.FirstName || last != user.LastName {
			return true
		}
	}
	if identity.AvatarURL != nil {
		if user.AvatarURL == nil || *user.AvatarURL != *identity.AvatarURL {
			return true
		}
	}
	return false
}
