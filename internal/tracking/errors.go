package tracking

import "errors"

var (
	ErrNotAuthenticated   = errors.New("user not authenticated")
	ErrMissingSessionID   = errors.New("session ID is required")
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
	ErrStaleSession       = errors.New("stale session ID, please restart tracking")
	ErrInvalidSession     = errors.New("invalid session ID, please restart tracking")
	ErrAlreadyClosed      = errors.New("session already closed")
	ErrNoActiveSession    = errors.New("no active session found")
)

// ErrorCode maps protocol errors to the machine-readable codes clients use to
// reset their local tracking state. Everything else has no code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrStaleSession):
		return "STALE_SESSION"
	case errors.Is(err, ErrInvalidSession):
		return "INVALID_SESSION"
	default:
		return ""
	}
}
