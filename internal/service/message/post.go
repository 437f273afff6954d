package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/pkg/ctxutil"
)

// MaxContentLen bounds a single message body.
const MaxContentLen = 2000

// PostInput holds parameters for the Post operation.
type PostInput struct {
	FlatID  uuid.UUID
	Content string
}

// Validate validates the post input.
func (i PostInput) Validate() error {
	var errs []domain.FieldError

	if i.FlatID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "flat_id", Message: "required"})
	}
	if strings.TrimSpace(i.Content) == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "required"})
	} else if len(i.Content) > MaxContentLen {
		errs = append(errs, domain.FieldError{Field: "content", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// Post appends a message to a listing's thread. The sender's display name
// and email are denormalized into the message at write time. Messages are
// append-only: there is no edit or delete operation on a thread.
func (s *Service) Post(ctx context.Context, input PostInput) (*domain.Message, error) {
	senderID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	// The thread must hang off an existing listing.
	if _, err := s.listings.GetByID(ctx, input.FlatID); err != nil {
		return nil, fmt.Errorf("message.Post get listing: %w", err)
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("message.Post get sender: %w", err)
	}

	m := &domain.Message{
		ID:          uuid.New(),
		FlatID:      input.FlatID,
		SenderID:    senderID,
		SenderName:  sender.DisplayName(),
		SenderEmail: sender.Email,
		Content:     strings.TrimSpace(input.Content),
		CreatedAt:   time.Now(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("message.Post create: %w", err)
	}

	s.log.InfoContext(ctx, "message posted",
		slog.String("flat_id", input.FlatID.String()),
		slog.String("sender_id", senderID.String()))

	return m, nil
}
