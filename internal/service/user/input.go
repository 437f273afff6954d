package user

import (
	"regexp"

	"github.com/flatmarket/backend/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[\w.\-]+@([\w\-]+\.)+[A-Za-z]{2,4}$`)

// UpdateProfileInput holds parameters for the UpdateProfile operation. Nil
// fields are left unchanged. Changing the email or password requires the
// current password when the account has one.
type UpdateProfileInput struct {
	FirstName       *string
	LastName        *string
	Email           *string
	NewPassword     *string
	CurrentPassword string
}

// Validate validates the profile update input.
func (i UpdateProfileInput) Validate() error {
	var errs []domain.FieldError

	if i.FirstName != nil && *i.FirstName == "" {
		errs = append(errs, domain.FieldError{Field: "first_name", Message: "cannot be blank"})
	}
	if i.LastName != nil && *i.LastName == "" {
		errs = append(errs, domain.FieldError{Field: "last_name", Message: "cannot be blank"})
	}
	if i.Email != nil && !emailPattern.MatchString(*i.Email) {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}
	if i.NewPassword != nil && *i.NewPassword == "" {
		errs = append(errs, domain.FieldError{Field: "new_password", Message: "cannot be blank"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// DeleteAccountInput holds parameters for the DeleteAccount operation.
type DeleteAccountInput struct {
	CurrentPassword string
}

// ListUsersInput holds paging parameters for the admin user list.
type ListUsersInput struct {
	Limit  int
	Offset int
}
