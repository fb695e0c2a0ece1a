package model

import "time"

// SourceReddit is the source tag stamped on every record.
const SourceReddit = "reddit"

// TimestampLayout is the ISO-8601 UTC layout used for record timestamps.
const TimestampLayout = "2006-01-02T15:04:05Z"

// CommentRecord is one line of the output corpus.
// A record is created by the flattener and never mutated afterwards.
type CommentRecord struct {
	// ID is the comment id, unique within the source.
	ID string `json:"id"`

	// Text is the normalized comment body. Never empty and never a tombstone.
	Text string `json:"text"`

	// Timestamp is the comment creation time, ISO-8601 in UTC.
	Timestamp string `json:"timestamp"`

	// Source is always SourceReddit.
	Source string `json:"source"`

	// Metadata ties the record back to the post it was found under.
	Metadata RecordMetadata `json:"metadata"`
}

// RecordMetadata is the per-record provenance block.
type RecordMetadata struct {
	Subreddit string `json:"subreddit"`
	PostTitle string `json:"post_title"`
	URL       string `json:"url"`
}

// PostContext carries the post-level metadata copied onto each record.
type PostContext struct {
	Subreddit string
	PostTitle string
	URL       string
}

// NewPostContext derives the record metadata from a fetched thread.
// The post URL falls back to the thread permalink when url is empty.
func NewPostContext(thread *Thread, url string) PostContext {
	if url == "" {
		url = thread.Post.URL()
	}
	return PostContext{
		Subreddit: thread.Post.Subreddit,
		PostTitle: thread.Post.Title,
		URL:       url,
	}
}

// Metadata converts the context to the record metadata block.
func (pc PostContext) Metadata() RecordMetadata {
	return RecordMetadata{
		Subreddit: pc.Subreddit,
		PostTitle: pc.PostTitle,
		URL:       pc.URL,
	}
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with a Z suffix.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UnixToTime converts a Reddit created_utc value (seconds, possibly
// fractional) to a UTC time.
func UnixToTime(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
