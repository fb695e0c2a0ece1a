package reddit

import (
	"errors"
	"fmt"
	"net/http"
)

// Fetch errors. Callers treat all of them as "skip this item".
var (
	// ErrTransport is returned when every attempt failed below HTTP
	// (DNS, connection reset, timeout).
	ErrTransport = errors.New("transport failure")

	// ErrRateLimited is returned when every attempt was answered with 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned for 404 and 410 responses. Deleted threads
	// and banned subreddits answer this way.
	ErrNotFound = errors.New("resource not found")

	// ErrMalformedResponse is returned when a body cannot be decoded into
	// the expected listing shape or exceeds the body size limit.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// HTTPError is returned for non-retryable status codes.
type HTTPError struct {
	StatusCode int
	URL        string
}

// Error implements error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// IsServerError reports whether the status code is 5xx.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode <= 599
}
