package auth

import (
	"regexp"
	"time"

	"github.com/flatmarket/backend/internal/domain"
)

// MinAge is the minimum account-holder age in years.
const MinAge = 18

var emailPattern = regexp.MustCompile(`^[\w.\-]+@([\w\-]+\.)+[A-Za-z]{2,4}$`)

// RegisterInput holds parameters for the Register operation.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate string // ISO date YYYY-MM-DD
}

// Validate checks everything except password strength, which Register
// reports separately as an auth error.
func (i RegisterInput) Validate(now time.Time) error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	} else if !emailPattern.MatchString(i.Email) {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}

	if i.FirstName == "" {
		errs = append(errs, domain.FieldError{Field: "first_name", Message: "required"})
	}
	if i.LastName == "" {
		errs = append(errs, domain.FieldError{Field: "last_name", Message: "required"})
	}

	if i.BirthDate == "" {
		errs = append(errs, domain.FieldError{Field: "birth_date", Message: "required"})
	} else if born, err := time.Parse("2006-01-02", i.BirthDate); err != nil {
		errs = append(errs, domain.FieldError{Field: "birth_date", Message: "invalid date"})
	} else if !isAdult(born, now) {
		errs = append(errs, domain.FieldError{Field: "birth_date", Message: "you must be at least 18"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// isAdult reports whether someone born on born is at least MinAge at now.
func isAdult(born, now time.Time) bool {
	cutoff := born.AddDate(MinAge, 0, 0)
	return !now.Before(cutoff)
}

// LoginPasswordInput holds parameters for the LoginWithPassword operation.
type LoginPasswordInput struct {
	Email    string
	Password string
}

// Validate validates the login input.
func (i LoginPasswordInput) Validate() error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// LoginGoogleInput holds parameters for the LoginWithGoogle operation.
type LoginGoogleInput struct {
	Code string
}

// Validate validates the Google login input.
func (i LoginGoogleInput) Validate() error {
	var errs []domain.FieldError

	if i.Code == "" {
		errs = append(errs, domain.FieldError{Field: "code", Message: "required"})
	} else if len(i.Code) > 4096 {
		errs = append(errs, domain.FieldError{Field: "code", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RefreshInput holds parameters for the Refresh operation.
type RefreshInput struct {
	RefreshToken string
}

// Validate validates the refresh input.
func (i RefreshInput) Validate() error {
	var errs []domain.FieldError

	if i.RefreshToken == "" {
		errs = append(errs, domain.FieldError{Field: "refresh_token", Message: "required"})
	} else if len(i.RefreshToken) > 512 {
		errs = append(errs, domain.FieldError{Field: "refresh_token", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
