package sink

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/state"
)

// MarkdownWriter outputs summaries as GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WriteRun outputs the run summary.
func (w *MarkdownWriter) WriteRun(result *model.RunResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeRunHeader(md, result)
	w.writeTotals(md, result)
	w.writePipeline(md, result)
	w.writeSubreddits(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRunHeader writes the run information table and the stop alert.
func (w *MarkdownWriter) writeRunHeader(md *markdown.Markdown, result *model.RunResult) {
	md.H1("Crawl Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + result.RunID + "`"},
			{"Mode", result.Mode},
			{"Started", result.StartedAt.Format(timeLayout)},
			{"Finished", result.FinishedAt.Format(timeLayout)},
			{"Elapsed", formatElapsed(result.Elapsed())},
		},
	})
	md.PlainText("")

	switch result.StopReason {
	case model.StopTargetsReached:
		md.Tip("All configured targets were reached.")
	case model.StopCancelled:
		md.Warningf("The run was cancelled after %d record(s). State was saved and the next run resumes from it.", result.Records)
	default:
		md.Note("The search space was exhausted before the targets were reached.")
	}
	md.PlainText("")
}

// writeTotals writes the corpus totals.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, result *model.RunResult) {
	md.H2("Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Posts", "Comments", "Words"},
		Rows: [][]string{{
			strconv.Itoa(result.Totals.Posts),
			strconv.Itoa(result.Totals.Comments),
			strconv.Itoa(result.Totals.Words),
		}},
	})
	md.PlainText("")
}

// writePipeline writes the per-stage counters of this run.
func (w *MarkdownWriter) writePipeline(md *markdown.Markdown, result *model.RunResult) {
	md.H2("Pipeline")
	md.PlainText("")

	rows := [][]string{
		{"Searches", strconv.Itoa(result.Searches)},
		{"Candidates", strconv.Itoa(result.Candidates)},
	}
	if result.Classified > 0 {
		rows = append(rows,
			[]string{"Classified", strconv.Itoa(result.Classified)},
			[]string{"Approved", strconv.Itoa(result.Approved)},
		)
	}
	rows = append(rows,
		[]string{"Fetched", strconv.Itoa(result.Fetched)},
		[]string{"Fetch failures", strconv.Itoa(result.FetchFailures)},
		[]string{"**Records**", "**" + strconv.Itoa(result.Records) + "**"},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSubreddits writes the per-subreddit table and pie chart.
func (w *MarkdownWriter) writeSubreddits(md *markdown.Markdown, result *model.RunResult) {
	counts := sortedSubreddits(result)
	if len(counts) == 0 {
		return
	}

	md.H2("Records per Subreddit")
	md.PlainText("")

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{"r/" + c.name, strconv.Itoa(c.count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Subreddit", "Records"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records per Subreddit"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		if c.count > 0 {
			chart.LabelAndIntValue("r/"+c.name, uint64(c.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteHistory outputs the run history table.
func (w *MarkdownWriter) WriteHistory(runs []state.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			"`" + r.RunID + "`",
			r.StartedAt.Format(timeLayout),
			r.Mode,
			stopText(r.StopReason),
			formatElapsed(r.Elapsed()),
			strconv.Itoa(r.Totals.Posts),
			strconv.Itoa(r.Totals.Comments),
			strconv.Itoa(r.Totals.Words),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Run", "Started", "Mode", "Stopped", "Elapsed", "Posts", "Comments", "Words"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [redditcorpus](https://github.com/nao1215/redditcorpus)*")
}
