package mygren

import (
	"errors"
	"fmt"
)

// Sentinel errors for heat pump API operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuth indicates authentication failed: invalid credentials, or a
	// request that still received 401 after one re-authentication retry.
	ErrAuth = errors.New("mygren: authentication failed")

	// ErrConnection indicates the heat pump is unreachable or its API
	// reported service unavailable (503).
	ErrConnection = errors.New("mygren: connection failed")
)

// APIError represents a non-auth, non-connection HTTP error from the
// heat pump API (typically 400 for rejected values).
//
// Use errors.As() to extract the status code and response body:
//
//	var apiErr *mygren.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == 400 {
//	    // rejected value
//	}
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mygren: HTTP %d from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}
