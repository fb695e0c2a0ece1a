package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrInvalidMode is returned when mode is neither comments nor review.
	ErrInvalidMode = errors.New("invalid mode: must be \"comments\" or \"review\"")

	// ErrNoSubreddits is returned when the subreddit list is empty.
	ErrNoSubreddits = errors.New("no subreddits configured")

	// ErrNoKeywords is returned when the keyword list is empty.
	ErrNoKeywords = errors.New("no keywords configured")

	// ErrInvalidOrder is returned for an unknown search order.
	ErrInvalidOrder = errors.New("invalid order: must be \"subreddit-major\" or \"keyword-major\"")

	// ErrInvalidMinComments is returned when min_comments is negative.
	ErrInvalidMinComments = errors.New("invalid min_comments: must be non-negative")

	// ErrInvalidPostsPerQuery is returned when posts_per_query is outside 1..100.
	ErrInvalidPostsPerQuery = errors.New("invalid posts_per_query: must be between 1 and 100")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTargets is returned when a target is negative.
	ErrInvalidTargets = errors.New("invalid targets: must be non-negative")

	// ErrWordsTargetInReview is returned when a word target is set in review
	// mode, where comment bodies are never fetched and the target could
	// never be reached.
	ErrWordsTargetInReview = errors.New("invalid targets: a words target cannot be reached in review mode")

	// ErrInvalidDelay is returned when a delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxRetries is returned when max_retries is not positive.
	ErrInvalidMaxRetries = errors.New("invalid max_retries: must be positive")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLayout is returned for an unknown output layout.
	ErrInvalidLayout = errors.New("invalid output layout: must be \"per-post\" or \"corpus\"")

	// ErrInvalidStateBackend is returned for an unknown state backend.
	ErrInvalidStateBackend = errors.New("invalid state backend: must be \"json\" or \"sqlite\"")
)
