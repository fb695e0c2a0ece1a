package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/state"
)

// TextWriter outputs human-readable summaries for terminal display.
type TextWriter struct {
	output io.Writer
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

// WriteRun outputs the run summary.
func (w *TextWriter) WriteRun(result *model.RunResult) (int, error) {
	var sb strings.Builder

	w.writeRule(&sb, "CRAWL SUMMARY")

	fmt.Fprintf(&sb, "Run ID:         %s\n", result.RunID)
	fmt.Fprintf(&sb, "Mode:           %s\n", result.Mode)
	fmt.Fprintf(&sb, "Started:        %s\n", result.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Elapsed:        %s\n", formatElapsed(result.Elapsed()))
	fmt.Fprintf(&sb, "Stopped:        %s\n", stopText(result.StopReason))
	sb.WriteString("\n")

	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Posts:        %d\n", result.Totals.Posts)
	fmt.Fprintf(&sb, "  Comments:     %d\n", result.Totals.Comments)
	fmt.Fprintf(&sb, "  Words:        %d\n", result.Totals.Words)
	sb.WriteString("\n")

	sb.WriteString("THIS RUN\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Searches:     %d\n", result.Searches)
	fmt.Fprintf(&sb, "  Candidates:   %d\n", result.Candidates)
	if result.Classified > 0 {
		fmt.Fprintf(&sb, "  Approved:     %d of %d\n", result.Approved, result.Classified)
	}
	fmt.Fprintf(&sb, "  Fetched:      %d (%d failed)\n", result.Fetched, result.FetchFailures)
	fmt.Fprintf(&sb, "  Records:      %d\n", result.Records)

	if counts := sortedSubreddits(result); len(counts) > 0 {
		sb.WriteString("\n")
		sb.WriteString("RECORDS PER SUBREDDIT\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n")
		for _, c := range counts {
			fmt.Fprintf(&sb, "  r/%-24s %d\n", c.name, c.count)
		}
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per run.
func (w *TextWriter) WriteHistory(runs []state.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeRule(&sb, "CRAWL HISTORY")

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-36s  %-19s  %-8s  %-15s  %6s  %8s  %9s\n",
		"RUN ID", "STARTED", "MODE", "STOP", "POSTS", "COMMENTS", "WORDS")
	for _, r := range runs {
		fmt.Fprintf(&sb, "%-36s  %-19s  %-8s  %-15s  %6d  %8d  %9d\n",
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			string(r.StopReason),
			r.Totals.Posts,
			r.Totals.Comments,
			r.Totals.Words,
		)
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *TextWriter) writeRule(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}
