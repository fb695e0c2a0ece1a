package reddit

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nao1215/redditcorpus/internal/model"
)

// Wire shapes of Reddit's JSON listings. They never leave this package;
// decode* functions turn them into model types.

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type linkData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

type moreData struct {
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

// decodeSearch decodes a search listing into post candidates. Children that
// are not links, or links without an id, are dropped.
func decodeSearch(body []byte) ([]model.PostCandidate, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("%w: search listing: %w", ErrMalformedResponse, err)
	}

	posts := make([]model.PostCandidate, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != model.KindLink {
			continue
		}
		post, err := decodeLink(child.Data)
		if err != nil {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func decodeLink(raw json.RawMessage) (model.PostCandidate, error) {
	var d linkData
	if err := json.Unmarshal(raw, &d); err != nil {
		return model.PostCandidate{}, fmt.Errorf("%w: link: %w", ErrMalformedResponse, err)
	}
	if d.ID == "" {
		return model.PostCandidate{}, fmt.Errorf("%w: link without id", ErrMalformedResponse)
	}
	return model.PostCandidate{
		ID:          d.ID,
		Title:       d.Title,
		Selftext:    d.Selftext,
		NumComments: d.NumComments,
		Permalink:   d.Permalink,
		Subreddit:   d.Subreddit,
		CreatedAt:   model.UnixToTime(d.CreatedUTC),
	}, nil
}

// decodeThread decodes the detail resource: a two element array holding the
// post listing and the comment listing. The post fields from the detail
// response override those of the search candidate, which can be stale.
func decodeThread(body []byte, candidate model.PostCandidate) (*model.Thread, error) {
	var parts []listing
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("%w: thread: %w", ErrMalformedResponse, err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: thread: expected 2 listings, got %d", ErrMalformedResponse, len(parts))
	}

	post := candidate
	if children := parts[0].Data.Children; len(children) > 0 {
		if p, err := decodeLink(children[0].Data); err == nil {
			post.Title = p.Title
			post.Selftext = p.Selftext
			post.Subreddit = p.Subreddit
			post.NumComments = p.NumComments
			if post.Permalink == "" {
				post.Permalink = p.Permalink
			}
			if post.ID == "" {
				post.ID = p.ID
				post.CreatedAt = p.CreatedAt
			}
		}
	}

	return &model.Thread{
		Post:     post,
		Comments: decodeNodes(parts[1].Data.Children),
	}, nil
}

// decodeNodes converts listing children into nodes. Comments without an id
// are dropped together with their replies.
func decodeNodes(children []thing) []model.Node {
	nodes := make([]model.Node, 0, len(children))
	for _, child := range children {
		switch child.Kind {
		case model.KindComment:
			var d commentData
			if err := json.Unmarshal(child.Data, &d); err != nil || d.ID == "" {
				continue
			}
			nodes = append(nodes, &model.CommentNode{
				ID:        d.ID,
				Author:    d.Author,
				Body:      d.Body,
				CreatedAt: model.UnixToTime(d.CreatedUTC),
				Replies:   decodeReplies(d.Replies),
			})
		case model.KindMore:
			var d moreData
			if err := json.Unmarshal(child.Data, &d); err != nil {
				continue
			}
			nodes = append(nodes, &model.MoreNode{Count: d.Count, ChildIDs: d.Children})
		default:
			nodes = append(nodes, &model.OtherNode{RawKind: child.Kind})
		}
	}
	return nodes
}

// decodeReplies handles the two shapes of "replies": the empty string when
// a comment has no replies, or a nested listing.
func decodeReplies(raw json.RawMessage) []model.Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var l listing
	if err := json.Unmarshal(trimmed, &l); err != nil {
		return nil
	}
	return decodeNodes(l.Data.Children)
}
