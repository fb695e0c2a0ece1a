package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/redditcorpus/internal/model"
)

// Getter fetches a URL and returns its body. *Fetcher implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client reads Reddit's search and thread detail resources.
type Client struct {
	getter  Getter
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Reddit origin. Tests point it at httptest servers.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewClient creates a Client that fetches through getter.
func NewClient(getter Getter, opts ...ClientOption) *Client {
	c := &Client{
		getter:  getter,
		baseURL: model.RedditBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL returns the subreddit-restricted search URL for target,
// sorted by comment count.
func (c *Client) SearchURL(target model.SearchTarget, limit int) string {
	q := url.Values{}
	q.Set("q", target.Keyword)
	q.Set("restrict_sr", "1")
	q.Set("sort", "comments")
	q.Set("limit", strconv.Itoa(limit))
	return c.baseURL + "/r/" + url.PathEscape(target.Subreddit) + "/search.json?" + q.Encode()
}

// ThreadURL returns the detail URL for a post permalink.
func (c *Client) ThreadURL(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		if u, err := url.Parse(permalink); err == nil {
			permalink = u.Path
		}
	}
	return c.baseURL + strings.TrimRight(permalink, "/") + ".json"
}

// SearchPosts runs one search and returns its post candidates in result order.
func (c *Client) SearchPosts(ctx context.Context, target model.SearchTarget, limit int) ([]model.PostCandidate, error) {
	body, err := c.getter.Get(ctx, c.SearchURL(target, limit))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", target, err)
	}
	posts, err := decodeSearch(body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", target, err)
	}
	return posts, nil
}

// FetchThread fetches and decodes the comment tree of post.
func (c *Client) FetchThread(ctx context.Context, post model.PostCandidate) (*model.Thread, error) {
	if post.Permalink == "" {
		return nil, fmt.Errorf("thread %s: %w: empty permalink", post.ID, ErrMalformedResponse)
	}
	body, err := c.getter.Get(ctx, c.ThreadURL(post.Permalink))
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", post.ID, err)
	}
	thread, err := decodeThread(body, post)
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", post.ID, err)
	}
	return thread, nil
}

// DecodeThread decodes a saved thread detail document, the JSON served
// at a post permalink with ".json" appended.
func DecodeThread(body []byte) (*model.Thread, error) {
	return decodeThread(body, model.PostCandidate{})
}
