package upload

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kinds of upload failure. Match them with errors.Is.
var (
	ErrTokenExpired = errors.New("upload token expired")
	ErrTokenReused  = errors.New("upload token already used")
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidFile  = errors.New("invalid file")
	ErrRejected     = errors.New("upload rejected")
)

// Error is a failed upload. StatusCode is 0 when the failure was detected
// locally, before any request was sent.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// IsTokenError reports whether err is fixed by retrying with a fresh credential.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenReused)
}

// classify maps a CDN error response to a kind. This is the only place that
// inspects the CDN's message text.
func classify(status int, message string) error {
	msg := strings.ToLower(message)
	switch {
	case status == http.StatusRequestEntityTooLarge || strings.Contains(msg, "too large"):
		return ErrTooLarge
	case strings.Contains(msg, "token") && (strings.Contains(msg, "used") || strings.Contains(msg, "reuse")):
		return ErrTokenReused
	case strings.Contains(msg, "expire"):
		return ErrTokenExpired
	case status == http.StatusUnsupportedMediaType || strings.Contains(msg, "file type") || strings.Contains(msg, "invalid file"):
		return ErrInvalidFile
	default:
		return ErrRejected
	}
}
