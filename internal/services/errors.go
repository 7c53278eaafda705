package services

import "errors"

// Validation failures surfaced to the caller as user-input errors. They are
// never retried and never hit the store or the LLM boundary.
var (
	ErrMessageEmpty   = errors.New("message is required and must be a non-empty string")
	ErrMessageTooLong = errors.New("message is too long")
)

// IsValidationError reports whether err is a user-input validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMessageEmpty) || errors.Is(err, ErrMessageTooLong)
}
