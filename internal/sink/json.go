package sink

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/state"
)

// JSONWriter outputs summaries as JSON for scripts.
type JSONWriter struct {
	output io.Writer

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs the full run result.
func (w *JSONWriter) WriteRun(result *model.RunResult) (int, error) {
	return w.writeJSON(result)
}

// historyEntry is the JSON shape of one history row.
type historyEntry struct {
	RunID          string              `json:"run_id"`
	Mode           string              `json:"mode"`
	StartedAt      string              `json:"started_at"`
	FinishedAt     string              `json:"finished_at"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
	StopReason     model.StopReason    `json:"stop_reason"`
	Totals         model.RunningTotals `json:"totals"`
}

// WriteHistory outputs the runs as a JSON array.
func (w *JSONWriter) WriteHistory(runs []state.RunSummary) (int, error) {
	entries := make([]historyEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, historyEntry{
			RunID:          r.RunID,
			Mode:           r.Mode,
			StartedAt:      model.FormatTimestamp(r.StartedAt),
			FinishedAt:     model.FormatTimestamp(r.FinishedAt),
			ElapsedSeconds: r.Elapsed().Seconds(),
			StopReason:     r.StopReason,
			Totals:         r.Totals,
		})
	}
	return w.writeJSON(entries)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
