package auth

import "unicode"

// MinPasswordLen is the floor for new passwords.
const MinPasswordLen = 6

// StrongPassword requires MinPasswordLen characters with at least one
// letter, one digit and one special character.
func StrongPassword(password string) bool {
	if len(password) < MinPasswordLen {
		return false
	}
	var letter, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case r != '_':
			special = true
		}
	}
	return letter && digit && special
}
