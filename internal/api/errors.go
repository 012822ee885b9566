package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthFailed indicates the backend rejected the credentials or token.
	ErrAuthFailed = errors.New("api: authentication failed")
	// ErrValidation indicates the backend rejected a well-formed request payload.
	ErrValidation = errors.New("api: payload rejected")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("api: record not found")
)

// TransportError wraps connection-level failures: dial errors, timeouts and
// backend outages. The conversation layer renders these as a generic
// connectivity message and never retries on its own.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a connection-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// statusError maps a non-2xx response to the client error taxonomy.
// 5xx responses count as transport failures: the backend is unhealthy,
// not the request.
func statusError(op string, code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", op, code, ErrAuthFailed)
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: status %d: %w", op, code, ErrNotFound)
	case code >= 400 && code < 500:
		return fmt.Errorf("%s: status %d: %w", op, code, ErrValidation)
	default:
		return &TransportError{Op: op, Err: fmt.Errorf("status %d", code)}
	}
}
