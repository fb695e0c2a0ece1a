package crawler

import (
	"iter"
	"strings"

	"github.com/nao1215/redditcorpus/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tombstones replace the body of deleted and removed comments.
const (
	TombstoneDeleted = "[deleted]"
	TombstoneRemoved = "[removed]"
)

// autoModerator is the author name of Reddit's moderation bot.
const autoModerator = "automoderator"

// Flattener turns a nested comment tree into flat comment records.
type Flattener struct {
	skipAutoModerator bool
}

// FlattenerOption configures a Flattener.
type FlattenerOption func(*Flattener)

// WithSkipAutoModerator drops comments written by AutoModerator. Their
// replies are still visited.
func WithSkipAutoModerator(skip bool) FlattenerOption {
	return func(f *Flattener) {
		f.skipAutoModerator = skip
	}
}

// NewFlattener creates a Flattener.
func NewFlattener(opts ...FlattenerOption) *Flattener {
	f := &Flattener{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten walks nodes depth-first in pre-order and yields one record per
// kept comment, stamped with pc. Top-level order is preserved.
//
// Non-comment nodes are skipped. Tombstoned and empty comments produce no
// record but their replies are still visited. The walk uses an explicit
// stack and stops as soon as the consumer stops ranging.
func (f *Flattener) Flatten(nodes []model.Node, pc model.PostContext) iter.Seq[model.CommentRecord] {
	return func(yield func(model.CommentRecord) bool) {
		fold := cases.Fold()
		meta := pc.Metadata()

		stack := make([]model.Node, 0, len(nodes))
		for i := len(nodes) - 1; i >= 0; i-- {
			stack = append(stack, nodes[i])
		}

		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			c, ok := n.(*model.CommentNode)
			if !ok {
				continue
			}
			for i := len(c.Replies) - 1; i >= 0; i-- {
				stack = append(stack, c.Replies[i])
			}

			if f.skipAutoModerator && fold.String(c.Author) == autoModerator {
				continue
			}
			text := NormalizeText(c.Body)
			if text == "" || isTombstone(fold, text) {
				continue
			}

			rec := model.CommentRecord{
				ID:        c.ID,
				Text:      text,
				Timestamp: model.FormatTimestamp(c.CreatedAt),
				Source:    model.SourceReddit,
				Metadata:  meta,
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// NormalizeText unescapes HTML entities, which Reddit applies to &, < and >
// in comment bodies, and converts the result to Unicode NFC.
// Surrounding whitespace is trimmed.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	return norm.NFC.String(s)
}

func isTombstone(fold cases.Caser, text string) bool {
	folded := fold.String(text)
	return folded == TombstoneDeleted || folded == TombstoneRemoved
}

// WordCount returns the number of whitespace-separated fields in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
