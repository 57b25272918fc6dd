package utils

import (
	"strings"
	"unicode"
)

const MaxUsernameLength = 64

// ValidateUsername checks that a username is non-empty, short, and free of
// whitespace and control characters. Usernames are case-sensitive and stored as given.
func ValidateUsername(username string) error {
	if username == "" {
		return &ValidationError{Field: "username", Message: "Username is required"}
	}

	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at most 64 characters"}
	}

	if strings.IndexFunc(username, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) != -1 {
		return &ValidationError{Field: "username", Message: "Username cannot contain spaces"}
	}

	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
