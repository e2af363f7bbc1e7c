package osuapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when the API answers 404 for a user. On the
// primary mode this usually means the account is restricted.
var ErrNotFound = errors.New("osu!api: not found")

// StatusError is any non-success API answer that is not a plain 404.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("osu!api: unexpected status %d for %s", e.Status, e.URL)
}

// IsRetryable reports whether err matches the known http2 stream-reset
// signature the API's edge occasionally produces for requests that would
// succeed if repeated. Only this narrow class gets the single retry; all
// other failures are handled at user granularity by the orchestrator.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	return strings.Contains(msg, "stream error") &&
		strings.Contains(msg, "INTERNAL_ERROR") &&
		strings.Contains(msg, "received from peer")
}
