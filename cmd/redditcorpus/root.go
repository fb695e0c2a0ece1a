package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/redditcorpus/internal/config"
	applog "github.com/nao1215/redditcorpus/internal/log"
)

// NewRootCmd creates the root command for redditcorpus.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redditcorpus",
		Short: "Build a JSONL corpus of Reddit discussions about AI in recruiting",
		Long: `redditcorpus crawls Reddit's public JSON endpoints for posts about AI in
recruiting and hiring, and writes every comment of the accepted threads as
one JSON line.

Progress is saved after every post, so an interrupted crawl resumes where it
stopped. Posts can be pre-screened by an LLM relevance classifier (Anthropic)
before their comments are fetched.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("data-dir", config.XDGDataDir(),
		"Directory of the run history database")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewConvertCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags. Subcommands executed on their own in tests have no
// parent, so a missing flag is false.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getDataDir returns the run history directory.
func getDataDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("data-dir")
	if err != nil || dir == "" {
		dir, err = cmd.Root().PersistentFlags().GetString("data-dir")
		if err != nil || dir == "" {
			return config.XDGDataDir()
		}
	}
	return dir
}

// setupLogger creates the secret-masking logger selected by the global flags.
func setupLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return applog.NewSecureJSONLogger(w, verbose)
	}
	return applog.NewSecureLogger(w, verbose)
}
