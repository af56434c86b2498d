package spotify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

// ErrTooManyIDs is returned when a single lookup exceeds the API's 50-id
// limit. Callers must pre-chunk.
var ErrTooManyIDs = errors.New("too many ids for a single lookup (max 50)")

// UpstreamError describes a failed call to the Spotify Web API.
type UpstreamError struct {
	Op     string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is a rate limit or server error.
// No retry is implemented here; the policy is left to callers.
func (e *UpstreamError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// upstreamError wraps an error from the underlying API client, extracting
// the HTTP status when the API reported one.
func upstreamError(op string, err error) *UpstreamError {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Op: op, Status: apiErr.Status, Err: err}
	}
	return &UpstreamError{Op: op, Err: err}
}
