package auth

import "github.com/flatmarket/backend/internal/domain"

// AuthResult is returned by Register, the login operations and Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string // raw token, NOT hash
	User         *domain.User
}
