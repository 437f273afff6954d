package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/flatmarket/backend/internal/domain"
)

// LoginWithPassword authenticates with email + password. Wrong email,
// missing password method and wrong password all collapse to the same
// invalid-credentials code so the response does not reveal which part
// failed.
func (s *Service) LoginWithPassword(ctx context.Context, input LoginPasswordInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials, domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("auth.LoginWithPassword get user: %w", err)
	}

	am, err := s.authMethods.GetByUserAndMethod(ctx, user.ID, domain.AuthMethodPassword)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// OAuth-only account.
			return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials, domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("auth.LoginWithPassword get auth method: %w", err)
	}

	if am.PasswordHash == nil {
		return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials, domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*am.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.NewAuthError(domain.AuthCodeInvalidCredentials, domain.ErrUnauthorized)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("auth.LoginWithPassword issue tokens: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in via password",
		slog.String("user_id", user.ID.String()))

	return result, nil
}
