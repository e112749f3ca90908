package willapi

import (
	"errors"
	"strings"
)

// Domain rejections from the ping preparation endpoint. The server reports
// them as free-text error strings; we match by substring and surface each as
// a distinct category instead of a generic failure.
var (
	ErrNotOwner         = errors.New("you do not own this will")
	ErrAlreadyTriggered = errors.New("cannot ping a triggered will")
	ErrAlreadyExecuted  = errors.New("cannot ping an executed will")

	// ErrServer is the catch-all for network failures and unclassified
	// server errors; the original message is attached by wrapping.
	ErrServer = errors.New("will api error")
)

func mapPingError(msg string) error {
	switch {
	case strings.Contains(msg, "You do not own this will"):
		return ErrNotOwner
	case strings.Contains(msg, "Cannot ping a triggered will"):
		return ErrAlreadyTriggered
	case strings.Contains(msg, "Cannot ping an executed will"):
		return ErrAlreadyExecuted
	default:
		return nil
	}
}
