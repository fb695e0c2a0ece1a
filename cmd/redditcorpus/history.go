package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/redditcorpus/internal/sink"
	"github.com/nao1215/redditcorpus/internal/state"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past crawl runs",
		Long: `History lists the crawl runs recorded in the database, newest first.
With a run id, or --latest, it shows the full summary of that run.

Examples:
  # List the last 20 runs
  redditcorpus history

  # Show the most recent run as Markdown
  redditcorpus history --latest --markdown

  # Show one run as JSON
  redditcorpus history --format json 0b7e6c1a-6a51-4e4e-9b43-8d1c2f0d3b11

  # Write the full history to a Markdown file
  redditcorpus history -n 0 -m -o history.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of runs to list (0 = all)")
	cmd.Flags().BoolP("latest", "l", false, "Show the most recent run")
	cmd.Flags().StringP("format", "f", string(sink.FormatText), "Output format: text, json or markdown")
	cmd.Flags().BoolP("markdown", "m", false, "Shorthand for --format markdown")
	cmd.Flags().StringP("output", "o", "-", "Write to this file instead of stdout")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if markdownOutput {
		format = string(sink.FormatMarkdown)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if latest && len(args) > 0 {
		return errors.New("--latest cannot be combined with a run id")
	}

	out := cmd.OutOrStdout()

	// Reading history never creates the database.
	db, err := state.Open(getDataDir(cmd), state.Options{CreateIfNotExists: false})
	if errors.Is(err, state.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'redditcorpus crawl' to start a crawl.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	history := state.NewHistory(db)

	switch {
	case len(args) > 0:
		result, err := history.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeSummary(out, output, sink.Format(format), func(w sink.SummaryWriter) error {
			_, err := w.WriteRun(result)
			return err
		})

	case latest:
		result, err := history.Latest(ctx)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}
		return writeSummary(out, output, sink.Format(format), func(w sink.SummaryWriter) error {
			_, err := w.WriteRun(result)
			return err
		})

	default:
		runs, err := history.List(ctx, limit)
		if err != nil {
			return err
		}
		return writeSummary(out, output, sink.Format(format), func(w sink.SummaryWriter) error {
			_, err := w.WriteHistory(runs)
			return err
		})
	}
}
