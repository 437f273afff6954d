package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a listing's conversation thread. Threads are
// append-only and keyed by flat ID. Visibility is asymmetric: the listing
// owner sees every message, any other user sees only their own.
type Message struct {
	ID          uuid.UUID
	FlatID      uuid.UUID
	SenderID    uuid.UUID
	SenderName  string
	SenderEmail string
	Content     string
	CreatedAt   time.Time
}

// VisibleTo reports whether viewer may see this message in the thread of a
// listing owned by ownerID.
func (m *Message) VisibleTo(viewerID, ownerID uuid.UUID) bool {
	return viewerID == ownerID || m.SenderID == viewerID
}
