// Package rest exposes the marketplace over HTTP: auth, listings,
// favorites, message threads, profile, admin and health endpoints, plus
// the /ws live delta stream.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flatmarket/backend/internal/domain"
)

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Code   string               `json:"code,omitempty"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// respondError translates service errors to HTTP responses. Validation
// failures carry their field list; auth failures carry the user-facing
// copy of their code; everything unrecognized is logged and collapses
// to a generic 500.
func respondError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		fields := make([]fieldErrorResponse, 0, len(validationErr.Errors))
		for _, fe := range validationErr.Errors {
			fields = append(fields, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		writeJSON(w, authStatus(authErr), errorResponse{
			Error: authErr.UserMessage(),
			Code:  string(authErr.Code),
		})
		return
	}

	var uploadErr *domain.UploadError
	if errors.As(err, &uploadErr) {
		log.WarnContext(ctx, "image upload failed",
			slog.String("filename", uploadErr.Filename),
			slog.String("error", uploadErr.Err.Error()))
		writeError(w, http.StatusBadGateway, "image upload failed")
		return
	}

	var persistErr *domain.PersistenceError
	if errors.As(err, &persistErr) {
		log.ErrorContext(ctx, "persistence write failed",
			slog.String("location", persistErr.Location),
			slog.String("op", persistErr.Op),
			slog.String("error", persistErr.Err.Error()))
		writeError(w, http.StatusInternalServerError, "write failed, please retry")
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.ErrorContext(ctx, "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// authStatus maps an auth code to its HTTP status, falling back on the
// wrapped sentinel.
func authStatus(e *domain.AuthError) int {
	switch e.Code {
	case domain.AuthCodeEmailInUse:
		return http.StatusConflict
	case domain.AuthCodeWeakPassword:
		return http.StatusBadRequest
	case domain.AuthCodeUserNotFound:
		return http.StatusNotFound
	}
	if errors.Is(e.Err, domain.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusUnauthorized
}
