package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
// It never crosses the service boundary unresolved: handlers translate it
// to user-facing copy, nothing retries it.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// UploadError reports a failed image upload. It aborts a submission before
// any persistence write happens; retry means resubmitting the whole step.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write to one of the two listing
// locations. There is no automatic rollback of the sibling write: a partial
// dual write leaves the locations inconsistent until the caller retries.
type PersistenceError struct {
	Location string // "listings" or "owner_listings"
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SubscriptionError reports a broken live stream. It is a sticky state for
// the consumer, distinct from an empty result set.
type SubscriptionError struct {
	Topic string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s: %v", e.Topic, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// AuthCode identifies an authentication failure cause.
type AuthCode string

const (
	AuthCodeInvalidCredentials  AuthCode = "auth/invalid-credentials"
	AuthCodeEmailInUse          AuthCode = "auth/email-already-in-use"
	AuthCodeWeakPassword        AuthCode = "auth/weak-password"
	AuthCodeRequiresRecentLogin AuthCode = "auth/requires-recent-login"
	AuthCodeUserNotFound        AuthCode = "auth/user-not-found"
)

// authMessages is the allowlist of codes translated to user-facing copy.
// Every other code collapses to a generic message.
var authMessages = map[AuthCode]string{
	AuthCodeInvalidCredentials:  "Incorrect email or password.",
	AuthCodeEmailInUse:          "An account with this email already exists.",
	AuthCodeWeakPassword:        "Password must include letters, numbers, and special characters.",
	AuthCodeRequiresRecentLogin: "Please sign in again to confirm this action.",
	AuthCodeUserNotFound:        "No account matches this email.",
}

// AuthError wraps an authentication failure with a provider-style code.
type AuthError struct {
	Code AuthCode
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UserMessage returns user-facing copy for the code, or a generic message
// for codes outside the allowlist.
func (e *AuthError) UserMessage() string {
	if msg, ok := authMessages[e.Code]; ok {
		return msg
	}
	return "Authentication failed. Please try again."
}

// NewAuthError creates an AuthError with the given code and cause.
func NewAuthError(code AuthCode, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}
