package domain

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteMark records that a user favorited a listing. Existence is the
// membership fact; only the owning user's toggle creates or removes it
// (cascading account deletion aside).
type FavoriteMark struct {
	UserID    uuid.UUID
	FlatID    uuid.UUID
	CreatedAt time.Time
}
