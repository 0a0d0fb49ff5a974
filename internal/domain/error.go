package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidCallback   = errors.New("invalid callback")
	ErrConfirmInProgress = errors.New("payment confirmation already in progress")
	ErrNetwork           = errors.New("backend unreachable")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrIllegalTransition = errors.New("illegal confirmation state transition")
	ErrLockNotAcquired   = errors.New("lock not acquired")
)

// ConfirmRejectedError is returned when the backend answers the confirm call
// with a non-2xx status.
type ConfirmRejectedError struct {
	Status  int
	Code    string
	Message string
}

func (e *ConfirmRejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("confirm rejected (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("confirm rejected (%d): %s", e.Status, e.Message)
}

// BackendError is a non-2xx answer from any other backend endpoint.
type BackendError struct {
	Op      string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage returns the human-readable reason shown on the failure page.
func UserMessage(err error) string {
	var rejected *ConfirmRejectedError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCallback):
		return "The payment result is missing required information."
	case errors.As(err, &rejected):
		if rejected.Message != "" {
			return rejected.Message
		}
		return "The payment could not be confirmed."
	case errors.Is(err, ErrNetwork):
		return "We could not reach the payment service. Reload the page to try again."
	case errors.Is(err, ErrConfirmInProgress):
		return "Your payment is being confirmed."
	default:
		return "The payment could not be confirmed."
	}
}
