package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flatmarket/backend/internal/domain"
	"github.com/flatmarket/backend/internal/service/message"
)

type messageService interface {
	Post(ctx context.Context, input message.PostInput) (*domain.Message, error)
	ListThread(ctx context.Context, flatID uuid.UUID) ([]domain.Message, error)
}

// MessageHandler serves listing-thread REST endpoints.
type MessageHandler struct {
	svc messageService
	log *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc messageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, log: logger.With("handler", "message")}
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	FlatID      string    `json:"flatId"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderEmail string    `json:"senderEmail"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:          m.ID.String(),
		FlatID:      m.FlatID.String(),
		SenderID:    m.SenderID.String(),
		SenderName:  m.SenderName,
		SenderEmail: m.SenderEmail,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

// Post handles POST /listings/{id}/messages.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.svc.Post(r.Context(), message.PostInput{
		FlatID:  flatID,
		Content: req.Content,
	})
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(m))
}

// ListThread handles GET /listings/{id}/messages. The service already
// filters the thread down to what the caller may see.
func (h *MessageHandler) ListThread(w http.ResponseWriter, r *http.Request) {
	flatID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	msgs, err := h.svc.ListThread(r.Context(), flatID)
	if err != nil {
		respondError(r.Context(), h.log, w, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}

	writeJSON(w, http.StatusOK, out)
}
