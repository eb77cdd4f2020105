package apperr

import (
	"errors"
	"net/http"
)

// Error is a tagged failure variant carrying the HTTP status class it maps to.
// The package-level variants below form the full error taxonomy of the
// service; wrap an underlying cause with With so errors.Is still matches
// both the variant and the cause.
type Error struct {
	Status  int
	Message string
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func (e *Error) Error() string { return e.Message }

// With attaches a cause to the variant. The returned error matches the
// variant via errors.Is and exposes the cause via errors.Unwrap.
func (e *Error) With(cause error) error {
	if cause == nil {
		return e
	}
	return &withCause{base: e, cause: cause}
}

type withCause struct {
	base  *Error
	cause error
}

func (w *withCause) Error() string { return w.base.Message + ": " + w.cause.Error() }
func (w *withCause) Unwrap() error { return w.cause }
func (w *withCause) Is(target error) bool {
	return target == w.base
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors
// outside the taxonomy (infrastructure failures).
func StatusOf(err error) int {
	// the outermost classification wins: consult the wrapper's base
	// before errors.As descends into the cause chain
	var wc *withCause
	if errors.As(err, &wc) {
		return wc.base.Status
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err. The wrapped cause is
// deliberately not included so internals do not leak to clients.
func MessageOf(err error) string {
	var wc *withCause
	if errors.As(err, &wc) {
		return wc.base.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong"
}

// Fatal startup-class conditions.
var (
	ErrConfiguration = New(http.StatusInternalServerError, "server configuration error")
)

// Authentication failures (client must re-authenticate).
var (
	ErrUnauthenticated = New(http.StatusUnauthorized, "you are not logged in, please log in to get access")
	ErrMissingToken    = New(http.StatusUnauthorized, "token is missing")
	ErrInvalidToken    = New(http.StatusUnauthorized, "invalid token")
	ErrTokenExpired    = New(http.StatusUnauthorized, "token has expired")
	ErrSessionExpired  = New(http.StatusUnauthorized, "session expired or invalid")
)

// Resource-state mismatches.
var (
	ErrUserNotFound       = New(http.StatusUnauthorized, "the user belonging to this token no longer exists")
	ErrSessionNotFound    = New(http.StatusUnauthorized, "session expired or invalid")
	ErrAlreadyRevoked     = New(http.StatusNotFound, "the session is already revoked")
	ErrNotFound           = New(http.StatusNotFound, "item not found")
	ErrForbidden          = New(http.StatusForbidden, "you don't have permission to access this")
	ErrEmailTaken         = New(http.StatusBadRequest, "user with this email already exists")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "invalid credentials")
)

// Server-side failures.
var (
	ErrSessionCreationFailed = New(http.StatusInternalServerError, "failed to create session")
)
