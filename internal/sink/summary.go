package sink

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/state"
)

// SummaryWriter renders finished runs.
type SummaryWriter interface {
	// WriteRun outputs the summary of one run.
	// Returns the number of bytes written and any error encountered.
	WriteRun(result *model.RunResult) (int, error)

	// WriteHistory outputs a list of past runs, newest first.
	WriteHistory(runs []state.RunSummary) (int, error)
}

// Format names a summary output format.
type Format string

const (
	// FormatText is plain text for the terminal.
	FormatText Format = "text"

	// FormatJSON is indented JSON.
	FormatJSON Format = "json"

	// FormatMarkdown is GitHub-flavored Markdown with a mermaid chart.
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported summary formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatMarkdown}
}

// NewSummaryWriter returns the writer for format.
func NewSummaryWriter(format Format, output io.Writer) (SummaryWriter, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// subredditCount is one entry of RecordsBySubreddit.
type subredditCount struct {
	name  string
	count int
}

// sortedSubreddits returns the per-subreddit record counts, largest first
// and by name on ties.
func sortedSubreddits(result *model.RunResult) []subredditCount {
	counts := make([]subredditCount, 0, len(result.RecordsBySubreddit))
	for name, n := range result.RecordsBySubreddit {
		counts = append(counts, subredditCount{name: name, count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	return counts
}

// formatElapsed rounds d to whole seconds.
func formatElapsed(d time.Duration) string {
	return d.Round(time.Second).String()
}

// stopText describes why a run ended.
func stopText(reason model.StopReason) string {
	switch reason {
	case model.StopTargetsReached:
		return "targets reached"
	case model.StopExhausted:
		return "search space exhausted"
	case model.StopCancelled:
		return "cancelled (partial results)"
	default:
		return string(reason)
	}
}

const timeLayout = "2006-01-02 15:04:05 MST"
