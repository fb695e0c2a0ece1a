package model

import (
	"strings"
	"time"
)

// RedditBaseURL is the public web origin used to build canonical post URLs.
const RedditBaseURL = "https://www.reddit.com"

// SearchTarget is one point of the search space: a keyword searched
// within a single subreddit.
type SearchTarget struct {
	// Subreddit is the subreddit name without the "r/" prefix.
	Subreddit string `json:"subreddit"`

	// Keyword is the free-text search query.
	Keyword string `json:"keyword"`
}

// String returns the target in "r/sub 'keyword'" form for logs.
func (t SearchTarget) String() string {
	return "r/" + t.Subreddit + " '" + t.Keyword + "'"
}

// PostCandidate is a post as returned by a search page.
// It is created once from the search response and never modified.
type PostCandidate struct {
	// ID is the base36 post id, unique per source (e.g. "1ph6qhq").
	ID string `json:"id"`

	// Title is the post title.
	Title string `json:"title"`

	// Selftext is the markdown body of a text post. Empty for link posts.
	Selftext string `json:"selftext"`

	// NumComments is the comment count reported by the search page.
	NumComments int `json:"num_comments"`

	// Permalink is the site-relative path of the post, e.g.
	// "/r/recruiting/comments/1ph6qhq/ai_recruiting_is_going_nowhere/".
	Permalink string `json:"permalink"`

	// Subreddit is the subreddit the post belongs to, as reported by Reddit.
	Subreddit string `json:"subreddit"`

	// CreatedAt is the post creation time in UTC.
	CreatedAt time.Time `json:"created_at"`
}

// URL returns the canonical absolute URL of the post.
func (p PostCandidate) URL() string {
	if strings.HasPrefix(p.Permalink, "http://") || strings.HasPrefix(p.Permalink, "https://") {
		return p.Permalink
	}
	return RedditBaseURL + p.Permalink
}

// ReviewRow is one line of the manual review sheet produced in review mode.
// Column order is fixed and matches Columns.
type ReviewRow struct {
	Keyword     string
	Subreddit   string
	PostID      string
	Title       string
	Selftext    string
	NumComments int
	URL         string
	CreatedUTC  string
}

// ReviewColumns is the header of the review sheet.
var ReviewColumns = []string{
	"keyword",
	"subreddit",
	"post_id",
	"title",
	"selftext",
	"num_comments",
	"url",
	"created_utc",
}

// NewReviewRow builds the review row of an approved post found under target.
func NewReviewRow(target SearchTarget, post PostCandidate) ReviewRow {
	return ReviewRow{
		Keyword:     target.Keyword,
		Subreddit:   target.Subreddit,
		PostID:      post.ID,
		Title:       post.Title,
		Selftext:    post.Selftext,
		NumComments: post.NumComments,
		URL:         post.URL(),
		CreatedUTC:  FormatTimestamp(post.CreatedAt),
	}
}
