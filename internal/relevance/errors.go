package relevance

import "errors"

var (
	// ErrClassifierMismatch is returned when the answer cannot be mapped
	// to exactly one yes/no per post.
	ErrClassifierMismatch = errors.New("classifier answer does not match batch")

	// ErrBatchTooLarge is returned when a batch exceeds the configured size.
	ErrBatchTooLarge = errors.New("batch exceeds configured size")

	// ErrEmptyResponse is returned when the backend answered without content.
	ErrEmptyResponse = errors.New("classifier returned no content")

	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")
)
