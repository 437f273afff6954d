package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account's profile document. Credentials live in
// AuthMethod records; the two are deleted in separate cascade phases.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	BirthDate string // ISO date, validated at registration
	AvatarURL *string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName is the name shown on messages and listings.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return "Anonymous"
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user may moderate listings and accounts.
func (u *User) IsAdmin() bool { return u.Role == UserRoleAdmin }

// AuthMethodType identifies how an account authenticates.
type AuthMethodType string

const (
	AuthMethodPassword AuthMethodType = "PASSWORD"
	AuthMethodGoogle   AuthMethodType = "GOOGLE"
)

func (t AuthMethodType) String() string { return string(t) }

// AuthMethod is one credential attached to a user: a bcrypt password hash
// or a federated provider subject.
type AuthMethod struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Method       AuthMethodType
	PasswordHash *string // set for PASSWORD
	ProviderID   *string // set for GOOGLE
	CreatedAt    time.Time
}

// RefreshToken is a hashed refresh token stored in the database.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsRevoked returns true if the token has been revoked.
func (t *RefreshToken) IsRevoked() bool { return t.RevokedAt != nil }

// IsExpired returns true if the token has expired relative to now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
