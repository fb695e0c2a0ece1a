package reddit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default fetcher settings.
const (
	defaultBaseDelay   = 5 * time.Second
	defaultMaxAttempts = 3
	defaultMaxBodySize = 32 * 1024 * 1024
	defaultUserAgent   = "Mozilla/5.0 (compatible; redditcorpus/1.0)"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
type Sleeper func(ctx context.Context, d time.Duration) error

// Attempt describes one finished request attempt.
type Attempt struct {
	URL        string
	Number     int
	StatusCode int
	Err        error
}

// Fetcher performs GET requests with bounded exponential backoff.
// A Fetcher is stateless between calls and safe for sequential reuse.
type Fetcher struct {
	client            *http.Client
	userAgent         string
	baseDelay         time.Duration
	maxAttempts       int
	maxBodySize       int64
	retryServerErrors bool
	sleep             Sleeper
	onAttempt         func(Attempt)
	logger            *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBackoff sets the first backoff delay and the total number of attempts.
func WithBackoff(baseDelay time.Duration, maxAttempts int) FetcherOption {
	return func(f *Fetcher) {
		f.baseDelay = baseDelay
		if maxAttempts > 0 {
			f.maxAttempts = maxAttempts
		}
	}
}

// WithMaxBodySize limits the response body size. Zero disables the limit.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithRetryServerErrors makes 5xx responses follow the backoff policy.
func WithRetryServerErrors(retry bool) FetcherOption {
	return func(f *Fetcher) {
		f.retryServerErrors = retry
	}
}

// WithSleeper replaces the backoff sleep. Tests use it to record delays
// without waiting.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithAttemptHook registers a function called after every attempt.
func WithAttemptHook(hook func(Attempt)) FetcherOption {
	return func(f *Fetcher) {
		f.onAttempt = hook
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher on top of client. A nil client uses
// http.DefaultClient.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:      client,
		userAgent:   defaultUserAgent,
		baseDelay:   defaultBaseDelay,
		maxAttempts: defaultMaxAttempts,
		maxBodySize: defaultMaxBodySize,
		sleep:       SleepContext,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get fetches rawURL and returns the response body.
//
// A 429 response or a transport fault sleeps for the current delay, doubles
// it and tries again, for at most maxAttempts attempts in total. There is
// no sleep after the final attempt. Cancellation of ctx is returned as is.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	delay := f.baseDelay
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, status, err := f.do(ctx, rawURL)
		f.notify(Attempt{URL: rawURL, Number: attempt, StatusCode: status, Err: err})

		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, ErrMalformedResponse) {
				return nil, err
			}
			lastErr = fmt.Errorf("%w: %w", ErrTransport, err)
		case status >= 200 && status <= 299:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w after %d attempts: %s", ErrRateLimited, attempt, rawURL)
		case status == http.StatusNotFound || status == http.StatusGone:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
		default:
			httpErr := &HTTPError{StatusCode: status, URL: rawURL}
			if !f.retryServerErrors || !httpErr.IsServerError() {
				return nil, httpErr
			}
			lastErr = httpErr
		}

		if attempt == f.maxAttempts {
			break
		}
		f.logger.Warn("request failed, backing off",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", f.maxAttempts,
			"delay", delay,
			"error", lastErr,
		)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, lastErr
}

func (f *Fetcher) notify(a Attempt) {
	if f.onAttempt != nil {
		f.onAttempt(a)
	}
}

// do performs a single attempt. A non-nil error means no usable HTTP
// response was received.
func (f *Fetcher) do(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // best effort
		return nil, resp.StatusCode, nil
	}

	var reader io.Reader = resp.Body
	if f.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodySize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		return nil, resp.StatusCode, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, f.maxBodySize)
	}
	return body, resp.StatusCode, nil
}
