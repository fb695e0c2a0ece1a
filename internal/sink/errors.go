package sink

import "errors"

var (
	// ErrUnknownFormat is returned for a summary format that has no writer.
	ErrUnknownFormat = errors.New("unknown summary format")

	// ErrMalformedReview is returned when the review sheet cannot be read back.
	ErrMalformedReview = errors.New("malformed review sheet")
)
