package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/redditcorpus/internal/crawler"
	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/reddit"
	"github.com/nao1215/redditcorpus/internal/sink"
)

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <thread.json>...",
		Short: "Convert saved Reddit thread JSON files to JSONL",
		Long: `Convert reads thread documents saved from Reddit (a post permalink with
".json" appended, downloaded by hand) and writes one JSON line per comment,
exactly as the crawl command does.

Each input file.json is written to file.jsonl next to it unless --output
names a single output file.

Examples:
  # Convert two saved threads
  redditcorpus convert recruiting1.json recruiting2.json

  # Record a specific post URL in the metadata
  redditcorpus convert --url https://www.reddit.com/r/recruiting/comments/1jfeum2/recruiters_and_ai/ recruiting2.json

  # Merge several threads into one file
  redditcorpus convert -o corpus.jsonl *.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runConvertCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write every record to this file instead of one .jsonl per input")
	cmd.Flags().String("url", "",
		"Post URL stored in the record metadata (single input only; default: the thread permalink)")
	cmd.Flags().Bool("skip-automoderator", false,
		"Drop comments written by AutoModerator")

	return cmd
}

// convertStats is the outcome of converting one thread.
type convertStats struct {
	Comments int
	Words    int
}

// runConvertCmd executes the convert command.
func runConvertCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	postURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	skipAutoMod, err := cmd.Flags().GetBool("skip-automoderator")
	if err != nil {
		return err
	}
	if postURL != "" && len(args) > 1 {
		return errors.New("--url can only be used with a single input file")
	}

	flattener := crawler.NewFlattener(crawler.WithSkipAutoModerator(skipAutoMod))
	out := cmd.OutOrStdout()

	if output != "" {
		return convertMerged(out, flattener, args, output, postURL)
	}

	for _, input := range args {
		dest := jsonlPath(input)
		if samePath(dest, input) {
			return fmt.Errorf("%s: output would overwrite the input, rename it to .json first", input)
		}
		thread, err := readThread(input)
		if err != nil {
			return err
		}

		f, err := os.OpenFile(filepath.Clean(dest), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		enc := sink.NewRecordEncoder(f)
		stats, err := convertThread(thread, postURL, flattener, enc)
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		fmt.Fprintf(out, "Converted %s: %d comments, %d words -> %s\n", input, stats.Comments, stats.Words, dest)
	}
	return nil
}

// convertMerged writes every input into one output file.
func convertMerged(out io.Writer, flattener *crawler.Flattener, inputs []string, output, postURL string) error {
	for _, input := range inputs {
		if samePath(output, input) {
			return fmt.Errorf("%s: output would overwrite an input", output)
		}
	}
	if dir := filepath.Dir(output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(output), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	enc := sink.NewRecordEncoder(f)

	var total convertStats
	for _, input := range inputs {
		stats, err := convertFile(input, postURL, flattener, enc)
		if err != nil {
			_ = enc.Close()
			return err
		}
		total.Comments += stats.Comments
		total.Words += stats.Words
		fmt.Fprintf(out, "Converted %s: %d comments, %d words\n", input, stats.Comments, stats.Words)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(out, "Wrote %d comments, %d words -> %s\n", total.Comments, total.Words, output)
	return nil
}

// convertFile reads one saved thread and writes its records to w.
func convertFile(input, postURL string, flattener *crawler.Flattener, w crawler.RecordWriter) (convertStats, error) {
	thread, err := readThread(input)
	if err != nil {
		return convertStats{}, err
	}
	stats, err := convertThread(thread, postURL, flattener, w)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", input, err)
	}
	return stats, nil
}

// readThread reads and decodes one saved thread document.
func readThread(input string) (*model.Thread, error) {
	data, err := os.ReadFile(filepath.Clean(input))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	thread, err := reddit.DecodeThread(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return thread, nil
}

// convertThread writes the records of thread to w.
func convertThread(thread *model.Thread, postURL string, flattener *crawler.Flattener, w crawler.RecordWriter) (convertStats, error) {
	var stats convertStats

	pc := model.NewPostContext(thread, postURL)
	for rec := range flattener.Flatten(thread.Comments, pc) {
		if err := w.Write(rec); err != nil {
			return stats, err
		}
		stats.Comments++
		stats.Words += crawler.WordCount(rec.Text)
	}
	return stats, nil
}

// jsonlPath replaces the extension of path with ".jsonl".
func jsonlPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl"
}

// samePath reports whether a and b name the same file. Paths are compared
// after cleaning and, when both exist, with os.SameFile.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
