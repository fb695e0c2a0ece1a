package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/redditcorpus/internal/config"
	"github.com/nao1215/redditcorpus/internal/crawler"
	"github.com/nao1215/redditcorpus/internal/model"
	"github.com/nao1215/redditcorpus/internal/reddit"
	"github.com/nao1215/redditcorpus/internal/relevance"
	"github.com/nao1215/redditcorpus/internal/sink"
	"github.com/nao1215/redditcorpus/internal/state"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl Reddit and build the comment corpus",
		Long: `Crawl searches every configured subreddit for every configured keyword,
keeps posts with enough comments that were not examined before, and writes
the comments of each accepted thread as JSON lines.

The crawl stops when all targets are reached or the search space is
exhausted. Progress is saved after every post; press Ctrl+C to stop early and
resume later.

Examples:
  # Crawl with the defaults (or the values in .redditcorpus)
  redditcorpus crawl

  # Screen posts with the LLM relevance classifier first
  ANTHROPIC_API_KEY=sk-ant-... redditcorpus crawl --relevance

  # Build the manual review sheet instead of fetching comments
  redditcorpus crawl --mode review --relevance

  # Narrow the search space and write a single corpus file
  redditcorpus crawl -s recruiting -s recruitinghell -k "AI screening" --layout corpus

  # Write a Markdown summary of the run
  redditcorpus crawl --summary run.md --summary-format markdown`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .redditcorpus in current or home directory)")
	cmd.Flags().StringP("mode", "m", string(config.ModeComments),
		"What to produce: comments or review")

	// Search space
	cmd.Flags().StringSliceP("subreddit", "s", nil, "Subreddit to search (repeatable)")
	cmd.Flags().StringSliceP("keyword", "k", nil, "Keyword to search for (repeatable)")
	cmd.Flags().String("order", string(config.OrderSubredditMajor),
		"Search order: subreddit-major or keyword-major")
	cmd.Flags().Int("min-comments", config.DefaultMinComments, "Skip posts with fewer comments")
	cmd.Flags().Int("posts-per-query", config.DefaultPostsPerQuery, "Search results per query (1-100)")

	// Targets
	cmd.Flags().Int("target-posts", 0, "Stop after this many accepted posts (0 = no target)")
	cmd.Flags().Int("target-comments", config.DefaultTargetComments, "Stop after this many comments (0 = no target)")
	cmd.Flags().Int("target-words", config.DefaultTargetWords, "Stop after this many words (0 = no target)")

	// Pacing
	cmd.Flags().Duration("search-delay", config.DefaultSearchDelay, "Sleep after every search request")
	cmd.Flags().Duration("detail-delay", config.DefaultDetailDelay, "Sleep after every thread request")
	cmd.Flags().Duration("classify-delay", config.DefaultClassifyDelay, "Sleep after every classifier call")
	cmd.Flags().Duration("backoff", config.DefaultBackoffBaseDelay, "First sleep after HTTP 429, doubled on each retry")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries, "Attempts per request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")

	// Relevance gate
	cmd.Flags().Bool("relevance", false, "Screen posts with the LLM relevance classifier")
	cmd.Flags().Int("batch-size", config.DefaultBatchSize, "Posts per classifier call")
	cmd.Flags().String("model", config.DefaultRelevanceModel, "Classifier model")
	cmd.Flags().String("env-file", config.DefaultEnvFile, "File holding ANTHROPIC_API_KEY")

	// Output and state
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Corpus output directory")
	cmd.Flags().String("layout", string(config.LayoutPerPost), "Corpus layout: per-post or corpus")
	cmd.Flags().String("review-csv", config.DefaultReviewCSV, "Review sheet path (review mode)")
	cmd.Flags().String("state-backend", string(config.BackendJSON), "Progress store: json or sqlite")
	cmd.Flags().Bool("skip-automoderator", false, "Drop comments written by AutoModerator")

	// Summary
	cmd.Flags().String("summary", "", "Write a run summary to this file (- for stdout)")
	cmd.Flags().String("summary-format", string(sink.FormatMarkdown), "Summary format: text, json or markdown")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, os.Stderr)
	slog.SetDefault(logger)
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var (
		result *model.RunResult
		done   = make(chan struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			fmt.Fprintln(out, "\nInterrupted, saving progress...")
			cancel()
		case <-done:
		}
		return nil
	})
	g.Go(func() error {
		defer close(done)
		var err error
		result, err = runCrawl(gctx, cfg, logger, out)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return writeRunSummary(cmd, result)
}

// buildConfig layers defaults, the configuration file and the flags the
// user set explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.DBDir = getDataDir(cmd)
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; otherwise a missing file just
	// means defaults.
	configPath := config.FindConfigFile(configFlag)
	switch {
	case configPath != "":
		if err := config.LoadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case configFlag != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	cfg.ApplyModeDefaults()
	if err := applyTargetFlags(cmd, &cfg.Targets); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTargetFlags overrides targets with the target flags set on the
// command line. It runs after the mode defaults so explicit values win.
func applyTargetFlags(cmd *cobra.Command, targets *model.Targets) error {
	for name, dst := range map[string]*int{
		"target-posts":    &targets.Posts,
		"target-comments": &targets.Comments,
		"target-words":    &targets.Words,
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	setString := func(name string, dst *string) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetString(name)
		}
	}
	setInt := func(name string, dst *int) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetInt(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetBool(name)
		}
	}
	setSlice := func(name string, dst *[]string) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetStringSlice(name)
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetDuration(name)
		}
	}

	mode := string(cfg.Mode)
	order := string(cfg.Order)
	layout := string(cfg.Output.Layout)
	backend := string(cfg.State.Backend)
	setString("mode", &mode)
	setString("order", &order)
	setString("layout", &layout)
	setString("state-backend", &backend)
	cfg.Mode = config.Mode(mode)
	cfg.Order = config.SearchOrder(order)
	cfg.Output.Layout = config.OutputLayout(layout)
	cfg.State.Backend = config.StateBackend(backend)

	setSlice("subreddit", &cfg.Subreddits)
	setSlice("keyword", &cfg.Keywords)
	setInt("min-comments", &cfg.MinComments)
	setInt("posts-per-query", &cfg.PostsPerQuery)

	setDuration("search-delay", &cfg.Delays.Search)
	setDuration("detail-delay", &cfg.Delays.Detail)
	setDuration("classify-delay", &cfg.Delays.Classify)
	setDuration("backoff", &cfg.Backoff.BaseDelay)
	setInt("max-retries", &cfg.Backoff.MaxRetries)
	setDuration("timeout", &cfg.HTTP.Timeout)
	setString("proxy", &cfg.HTTP.Proxy)

	setBool("relevance", &cfg.Relevance.Enabled)
	setInt("batch-size", &cfg.BatchSize)
	setString("model", &cfg.Relevance.Model)
	setString("env-file", &cfg.Relevance.EnvFile)

	setString("output", &cfg.Output.Dir)
	setString("review-csv", &cfg.Output.ReviewCSV)
	setBool("skip-automoderator", &cfg.Filter.SkipAutoModerator)

	return err
}

// runCrawl wires the crawler from cfg, runs it and records the run in
// the history database.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*model.RunResult, error) {
	db, err := state.Open(cfg.DBDir, state.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	client, err := newRedditClient(cfg, logger, out)
	if err != nil {
		return nil, err
	}

	deps := crawler.Deps{
		Searcher: client,
		Threads:  client,
		Store:    newStateStore(cfg, db),
	}

	if cfg.Relevance.Enabled {
		gate, err := newGate(cfg)
		if err != nil {
			return nil, err
		}
		deps.Gate = gate
	}

	var initial model.RunningTotals
	switch cfg.Mode {
	case config.ModeReview:
		initial, err = sink.LoadReviewTotals(cfg.Output.ReviewCSV)
		if err != nil {
			return nil, err
		}
		review, err := sink.OpenReviewCSV(cfg.Output.ReviewCSV)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", crawler.ErrSink, err)
		}
		defer review.Close()
		deps.Review = review
	default:
		corpus, closeCorpus, err := newCorpusSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", crawler.ErrSink, err)
		}
		defer closeCorpus()
		deps.Corpus = corpus
	}

	orch, err := crawler.NewOrchestrator(deps, crawler.Settings{
		Mode:          crawler.Mode(cfg.Mode),
		Targets:       cfg.Targets,
		MinComments:   cfg.MinComments,
		PostsPerQuery: cfg.PostsPerQuery,
		BatchSize:     cfg.BatchSize,
		SearchDelay:   cfg.Delays.Search,
		DetailDelay:   cfg.Delays.Detail,
		ClassifyDelay: cfg.Delays.Classify,
	},
		crawler.WithFlattener(crawler.NewFlattener(crawler.WithSkipAutoModerator(cfg.Filter.SkipAutoModerator))),
		crawler.WithLogger(logger),
		crawler.WithProgress(out),
	)
	if err != nil {
		return nil, err
	}

	targets := cfg.SearchTargets()
	fmt.Fprintf(out, "Crawling %d searches (%d subreddits x %d keywords, %s)...\n\n",
		len(targets), len(cfg.Subreddits), len(cfg.Keywords), cfg.Order)

	result, err := orch.Run(ctx, targets, initial)
	if err != nil {
		return result, err
	}

	// The run is over; record it even after an interrupt.
	if err := state.NewHistory(db).Save(context.WithoutCancel(ctx), result); err != nil {
		logger.Error("failed to save run history", "run_id", result.RunID, "error", err)
	}

	if _, err := sink.NewTextWriter(out).WriteRun(result); err != nil {
		return result, err
	}
	return result, nil
}

// newRedditClient builds the HTTP client, rate-limited fetcher and
// Reddit client.
func newRedditClient(cfg *config.Config, logger *slog.Logger, out io.Writer) (*reddit.Client, error) {
	httpClient, err := reddit.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := reddit.NewFetcher(httpClient,
		reddit.WithUserAgent(cfg.HTTP.UserAgent),
		reddit.WithBackoff(cfg.Backoff.BaseDelay, cfg.Backoff.MaxRetries),
		reddit.WithMaxBodySize(cfg.HTTP.MaxBodySize),
		reddit.WithRetryServerErrors(cfg.Backoff.RetryServerErrors),
		reddit.WithLogger(logger),
		reddit.WithAttemptHook(func(a reddit.Attempt) {
			if a.StatusCode == 429 {
				fmt.Fprintf(out, "Rate limited (attempt %d), backing off...\n", a.Number)
			}
		}),
	)

	return reddit.NewClient(fetcher, reddit.WithBaseURL(cfg.HTTP.BaseURL)), nil
}

// newStateStore returns the progress store selected by cfg.
func newStateStore(cfg *config.Config, db *state.DB) state.Store {
	if cfg.State.Backend == config.BackendSQLite {
		return state.NewSQLiteStore(db)
	}
	return state.NewJSONStore(cfg.State.CheckedFile, cfg.State.IncludedFile)
}

// newGate builds the relevance gate. The API key comes from the
// environment or the configured env file.
func newGate(cfg *config.Config) (*relevance.Gate, error) {
	apiKey := cfg.Relevance.APIKey
	if apiKey == "" {
		var err error
		apiKey, err = relevance.LoadAPIKey(cfg.Relevance.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("relevance classifier: %w (set %s or use --env-file)", err, relevance.APIKeyEnv)
		}
	}

	classifier, err := relevance.NewAnthropicClassifier(apiKey,
		relevance.WithModel(cfg.Relevance.Model),
		relevance.WithMaxTokens(cfg.Relevance.MaxTokens),
		relevance.WithTemperature(cfg.Relevance.Temperature),
	)
	if err != nil {
		return nil, err
	}

	return relevance.NewGate(classifier,
		relevance.WithBatchSize(cfg.BatchSize),
		relevance.WithMaxSelftext(cfg.Relevance.MaxSelftextChars),
	), nil
}

// newCorpusSink opens the corpus sink for the configured layout. The
// returned func closes it.
func newCorpusSink(cfg *config.Config) (crawler.CorpusSink, func(), error) {
	if cfg.Output.Layout == config.LayoutCorpus {
		s, err := sink.OpenFileSink(cfg.CorpusPath())
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	s, err := sink.NewPerPostSink(cfg.Output.Dir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// writeRunSummary writes the --summary file, if requested.
func writeRunSummary(cmd *cobra.Command, result *model.RunResult) error {
	path, err := cmd.Flags().GetString("summary")
	if err != nil || path == "" || result == nil {
		return err
	}
	format, err := cmd.Flags().GetString("summary-format")
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), path, sink.Format(format), func(w sink.SummaryWriter) error {
		_, err := w.WriteRun(result)
		return err
	})
}

// writeSummary opens path ("-" for out), picks the writer for format and
// calls write with it.
func writeSummary(out io.Writer, path string, format sink.Format, write func(sink.SummaryWriter) error) error {
	dest := out
	if path != "-" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	w, err := sink.NewSummaryWriter(format, dest)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if path != "-" {
		fmt.Fprintf(out, "Summary written to %s\n", path)
	}
	return nil
}
