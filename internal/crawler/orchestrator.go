package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/redditcorpus/internal/model"
)

// Searcher runs one subreddit search. *reddit.Client implements it.
type Searcher interface {
	SearchPosts(ctx context.Context, target model.SearchTarget, limit int) ([]model.PostCandidate, error)
}

// ThreadFetcher fetches the comment tree of a post. *reddit.Client implements it.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, post model.PostCandidate) (*model.Thread, error)
}

// Gate judges a batch of candidates. It always returns one answer per
// candidate; on error every answer is false.
type Gate interface {
	Approve(ctx context.Context, batch []model.PostCandidate) ([]bool, error)
}

// StateStore loads and persists the checked and included id sets.
type StateStore interface {
	Load(ctx context.Context) (*model.CrawlState, error)
	Persist(ctx context.Context, state *model.CrawlState) error
}

// CorpusSink receives the comment records of one thread at a time.
type CorpusSink interface {
	Begin(target model.SearchTarget, post model.PostCandidate) (RecordWriter, error)
}

// RecordWriter writes the records of a single thread.
type RecordWriter interface {
	Write(rec model.CommentRecord) error
	Close() error
}

// ReviewSink receives accepted posts in review mode.
type ReviewSink interface {
	WriteRow(row model.ReviewRow) error
}

// Mode selects what the orchestrator does with an accepted post.
type Mode string

const (
	// ModeComments fetches and flattens the thread into the corpus sink.
	ModeComments Mode = "comments"

	// ModeReview appends the post to the review sink without fetching it.
	ModeReview Mode = "review"
)

// Settings are the run parameters of an Orchestrator.
type Settings struct {
	Mode          Mode
	Targets       model.Targets
	MinComments   int
	PostsPerQuery int
	BatchSize     int
	SearchDelay   time.Duration
	DetailDelay   time.Duration
	ClassifyDelay time.Duration
}

// Deps are the collaborators of an Orchestrator. Gate is optional; without
// it every filtered candidate is accepted. Threads and Corpus are required
// in comments mode, Review in review mode.
type Deps struct {
	Searcher Searcher
	Threads  ThreadFetcher
	Gate     Gate
	Store    StateStore
	Corpus   CorpusSink
	Review   ReviewSink
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Orchestrator drives a crawl over the search space: search, filter,
// optionally classify, fetch, flatten, write and accumulate until the
// targets are met or the search space is exhausted.
//
// An Orchestrator owns the crawl state for the duration of Run and is not
// safe for concurrent use.
type Orchestrator struct {
	deps      Deps
	settings  Settings
	flattener *Flattener
	sleep     Sleeper
	logger    *slog.Logger
	progress  io.Writer
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFlattener replaces the default Flattener.
func WithFlattener(f *Flattener) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.flattener = f
		}
	}
}

// WithSleeper replaces the courtesy delay sleep.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress writes one human-readable line per step to w.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates an Orchestrator and checks that the dependencies
// required by settings.Mode are present.
func NewOrchestrator(deps Deps, settings Settings, opts ...Option) (*Orchestrator, error) {
	if settings.Mode == "" {
		settings.Mode = ModeComments
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = 1
	}
	if deps.Searcher == nil || deps.Store == nil {
		return nil, fmt.Errorf("%w: searcher and state store are required", ErrMissingDependency)
	}
	switch settings.Mode {
	case ModeComments:
		if deps.Threads == nil || deps.Corpus == nil {
			return nil, fmt.Errorf("%w: comments mode needs a thread fetcher and a corpus sink", ErrMissingDependency)
		}
	case ModeReview:
		if deps.Review == nil {
			return nil, fmt.Errorf("%w: review mode needs a review sink", ErrMissingDependency)
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", settings.Mode)
	}

	o := &Orchestrator{
		deps:      deps,
		settings:  settings,
		flattener: NewFlattener(),
		sleep:     sleepContext,
		logger:    slog.Default(),
		progress:  io.Discard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// errStop ends the crawl loop early; it never escapes Run.
var errStop = errors.New("stop")

// run holds the mutable state of a single Run call.
type run struct {
	state     *model.CrawlState
	attempted model.IDSet
	result    *model.RunResult
	target    model.SearchTarget
}

// Run crawls targets in order, starting from initial totals (review mode
// seeds them from an existing review sheet). It persists state after every
// batch and processed post and once more before returning, also when ctx
// is cancelled. The returned error is non-nil only for fatal failures:
// persistence and sink errors.
func (o *Orchestrator) Run(ctx context.Context, targets []model.SearchTarget, initial model.RunningTotals) (*model.RunResult, error) {
	result := &model.RunResult{
		RunID:              uuid.NewString(),
		Mode:               string(o.settings.Mode),
		StartedAt:          o.now(),
		Totals:             initial,
		StopReason:         model.StopExhausted,
		RecordsBySubreddit: make(map[string]int),
	}

	state, err := o.deps.Store.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	r := &run{state: state, attempted: model.NewIDSet(), result: result}

	o.logger.Info("crawl started",
		"run_id", result.RunID,
		"mode", result.Mode,
		"targets", len(targets),
		"checked", len(state.Checked),
		"included", len(state.Included),
	)

	loopErr := o.loop(ctx, targets, r)

	// Persist even when ctx is cancelled.
	persistErr := o.persist(context.WithoutCancel(ctx), r)
	result.FinishedAt = o.now()

	switch {
	case loopErr == nil, errors.Is(loopErr, errStop):
	case errors.Is(loopErr, context.Canceled), errors.Is(loopErr, context.DeadlineExceeded):
		result.StopReason = model.StopCancelled
	default:
		return result, loopErr
	}
	if persistErr != nil {
		return result, persistErr
	}

	o.logger.Info("crawl finished",
		"run_id", result.RunID,
		"stop_reason", result.StopReason,
		"posts", result.Totals.Posts,
		"comments", result.Totals.Comments,
		"words", result.Totals.Words,
	)
	return result, nil
}

func (o *Orchestrator) loop(ctx context.Context, targets []model.SearchTarget, r *run) error {
	if o.settings.Targets.Met(r.result.Totals) {
		r.result.StopReason = model.StopTargetsReached
		return errStop
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.target = target

		o.printf("Fetching posts for %s...\n", target)
		posts, err := o.deps.Searcher.SearchPosts(ctx, target, o.settings.PostsPerQuery)
		r.result.Searches++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("search failed", "target", target.String(), "error", err)
		}
		if err := o.sleep(ctx, o.settings.SearchDelay); err != nil {
			return err
		}

		candidates := o.filter(posts, r)
		r.result.Candidates += len(candidates)
		if len(candidates) == 0 {
			continue
		}

		if o.deps.Gate != nil {
			err = o.classifyAndProcess(ctx, candidates, r)
		} else {
			err = o.processAll(ctx, candidates, r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// filter keeps posts with enough comments that were neither checked in a
// previous run nor attempted earlier in this one.
func (o *Orchestrator) filter(posts []model.PostCandidate, r *run) []model.PostCandidate {
	out := make([]model.PostCandidate, 0, len(posts))
	seen := model.NewIDSet()
	for _, p := range posts {
		if p.NumComments < o.settings.MinComments {
			continue
		}
		if r.state.IsChecked(p.ID) || r.attempted.Has(p.ID) || seen.Has(p.ID) {
			continue
		}
		seen.Add(p.ID)
		out = append(out, p)
	}
	return out
}

// classifyAndProcess judges candidates in batches. After each gate call the
// batch is walked in order: every candidate is marked checked, and if
// approved also included, before it is processed. When the targets are met
// the walk stops and the remaining candidates stay unchecked.
func (o *Orchestrator) classifyAndProcess(ctx context.Context, candidates []model.PostCandidate, r *run) error {
	for start := 0; start < len(candidates); start += o.settings.BatchSize {
		end := min(start+o.settings.BatchSize, len(candidates))
		batch := candidates[start:end]

		approvals, err := o.deps.Gate.Approve(ctx, batch)
		r.result.Classified += len(batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("relevance gate rejected batch",
				"target", r.target.String(),
				"batch_size", len(batch),
				"error", err,
			)
		}
		if err := o.sleep(ctx, o.settings.ClassifyDelay); err != nil {
			return err
		}

		for i, post := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.attempted.Add(post.ID)
			r.state.MarkChecked(post.ID)
			if i >= len(approvals) || !approvals[i] {
				continue
			}
			r.state.MarkIncluded(post.ID)
			r.result.Approved++

			if _, err := o.process(ctx, post, r); err != nil {
				return err
			}
			if err := o.persist(ctx, r); err != nil {
				return err
			}
			if o.settings.Targets.Met(r.result.Totals) {
				r.result.StopReason = model.StopTargetsReached
				o.printf("Reached target corpus size!\n")
				return errStop
			}
		}

		if err := o.persist(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// processAll handles candidates without a gate. A post is marked checked
// and included only after its output was written, so failed fetches are
// retried by the next run.
func (o *Orchestrator) processAll(ctx context.Context, candidates []model.PostCandidate, r *run) error {
	for _, post := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.attempted.Add(post.ID)
		r.result.Approved++

		ok, err := o.process(ctx, post, r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		r.state.MarkIncluded(post.ID)
		if err := o.persist(ctx, r); err != nil {
			return err
		}
		if o.settings.Targets.Met(r.result.Totals) {
			r.result.StopReason = model.StopTargetsReached
			o.printf("Reached target corpus size!\n")
			return errStop
		}
	}
	return nil
}

// process handles one accepted post. It reports whether output was written.
// Per-post faults are logged and reported as false; only sink failures and
// cancellation are returned as errors.
func (o *Orchestrator) process(ctx context.Context, post model.PostCandidate, r *run) (bool, error) {
	if o.settings.Mode == ModeReview {
		return o.processReview(post, r)
	}

	o.printf("  Fetching comments for post: %s (%d comments)\n", post.URL(), post.NumComments)
	thread, err := o.deps.Threads.FetchThread(ctx, post)
	r.result.Fetched++
	if sleepErr := o.sleep(ctx, o.settings.DetailDelay); sleepErr != nil {
		return false, sleepErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		r.result.FetchFailures++
		o.logger.Warn("thread fetch failed, skipping post", "post_id", post.ID, "error", err)
		return false, nil
	}

	w, err := o.deps.Corpus.Begin(r.target, thread.Post)
	if err != nil {
		return false, fmt.Errorf("%w: open %s: %w", ErrSink, post.ID, err)
	}

	comments, words := 0, 0
	pc := model.NewPostContext(thread, post.URL())
	for rec := range o.flattener.Flatten(thread.Comments, pc) {
		if err := w.Write(rec); err != nil {
			_ = w.Close() //nolint:errcheck // the write error is reported
			return false, fmt.Errorf("%w: write %s: %w", ErrSink, post.ID, err)
		}
		comments++
		words += WordCount(rec.Text)
	}
	if err := w.Close(); err != nil {
		return false, fmt.Errorf("%w: close %s: %w", ErrSink, post.ID, err)
	}

	r.result.Totals.Add(1, comments, words)
	r.result.Records += comments
	r.result.RecordsBySubreddit[thread.Post.Subreddit] += comments
	o.printf("  Saved %s | +%d comments, +%d words (total %d comments, %d words)\n",
		post.ID, comments, words, r.result.Totals.Comments, r.result.Totals.Words)
	return true, nil
}

func (o *Orchestrator) processReview(post model.PostCandidate, r *run) (bool, error) {
	if err := o.deps.Review.WriteRow(model.NewReviewRow(r.target, post)); err != nil {
		return false, fmt.Errorf("%w: review row %s: %w", ErrSink, post.ID, err)
	}
	r.result.Totals.Add(1, post.NumComments, 0)
	r.result.Records++
	r.result.RecordsBySubreddit[post.Subreddit]++
	o.printf("  Added %s: %s (%d comments, total %d)\n",
		post.ID, post.Title, post.NumComments, r.result.Totals.Comments)
	return true, nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run) error {
	if err := o.deps.Store.Persist(ctx, r.state); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (o *Orchestrator) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.progress, format, args...) //nolint:errcheck // progress output is best effort
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
