// Package apperr holds the error categories shared by services and handlers.
// Concrete errors wrap one of the categories so callers can branch with
// errors.Is without knowing every specific error.
package apperr

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrAuth          = errors.New("authentication failed")
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// Recoverable reports whether err belongs to one of the categories that a
// request handler answers with a notice instead of a server error.
func Recoverable(err error) bool {
	for _, c := range []error{ErrValidation, ErrConflict, ErrAuth, ErrNotFound, ErrInvalidStatus} {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// Message returns the human readable part of a categorized error, i.e. the
// text after the "<category>: " prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, c := range []error{ErrValidation, ErrConflict, ErrAuth, ErrNotFound, ErrInvalidStatus} {
		prefix := c.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
