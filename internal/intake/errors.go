package intake

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidStepValue = errors.New("invalid value for current step")
	ErrOutOfRange       = errors.New("transition out of range")
	ErrReadOnly         = errors.New("session is submitted")
	ErrUnknownCountry   = errors.New("unknown country")
	ErrNotComplete      = errors.New("session not complete")
)

// ErrorCode maps an error to the stable code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrInvalidStepValue):
		return "invalid_step_value"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrReadOnly):
		return "read_only"
	case errors.Is(err, ErrUnknownCountry):
		return "unknown_country"
	case errors.Is(err, ErrNotComplete):
		return "not_complete"
	default:
		return "bad_request"
	}
}
