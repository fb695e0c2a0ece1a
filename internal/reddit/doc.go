// Package reddit talks to Reddit's public JSON endpoints.
//
// Fetcher performs GET requests with bounded exponential backoff on rate
// limiting and transport faults. Client builds the search and thread detail
// URLs on top of a Fetcher and decodes the responses into model types,
// rejecting malformed nodes at this boundary so that the rest of the
// program only sees validated data.
//
// # Retry policy
//
//   - 200: the body is returned
//   - 429: sleep, double the delay, retry
//   - 404 and 410: ErrNotFound, no retry
//   - other status codes: *HTTPError, no retry (5xx optionally retried)
//   - transport faults: sleep, double the delay, retry
//
// MaxRetries counts attempts, not retries, and no sleep follows the final
// attempt. Exhausted rate limiting yields ErrRateLimited and exhausted
// transport faults yield ErrTransport.
package reddit
