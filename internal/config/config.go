package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/redditcorpus/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "redditcorpus"

	// DefaultBaseURL is the Reddit origin serving the JSON endpoints.
	DefaultBaseURL = "https://www.reddit.com"

	// DefaultUserAgent identifies the crawler. Reddit throttles generic
	// user agents much harder than descriptive ones.
	DefaultUserAgent = "Mozilla/5.0 (compatible; redditcorpus/1.0; +https://github.com/nao1215/redditcorpus)"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodySize limits the size of a single response body.
	// Large threads with thousands of comments stay well below this.
	DefaultMaxBodySize = 32 * 1024 * 1024

	// DefaultMinComments drops threads too small to be worth a detail request.
	DefaultMinComments = 25

	// DefaultPostsPerQuery is the search page size. 100 is the API maximum.
	DefaultPostsPerQuery = 100

	// DefaultBatchSize is the number of posts judged per classifier call.
	DefaultBatchSize = 10

	// DefaultSearchDelay is slept after every search request.
	DefaultSearchDelay = 2 * time.Second

	// DefaultDetailDelay is slept after every thread detail request.
	DefaultDetailDelay = 3 * time.Second

	// DefaultClassifyDelay is slept after every classifier call.
	DefaultClassifyDelay = 2 * time.Second

	// DefaultBackoffBaseDelay is the first sleep after a rate-limit response.
	// It doubles on every further rate-limit response.
	DefaultBackoffBaseDelay = 5 * time.Second

	// DefaultMaxRetries is the total number of attempts per request.
	DefaultMaxRetries = 3

	// DefaultTargetComments and DefaultTargetWords stop a comments-mode run.
	DefaultTargetComments = 20000
	DefaultTargetWords    = 150000

	// DefaultReviewTargetPosts and DefaultReviewTargetComments stop a
	// review-mode run.
	DefaultReviewTargetPosts    = 300
	DefaultReviewTargetComments = 30000

	// DefaultRelevanceModel is the model used by the relevance gate.
	DefaultRelevanceModel = "claude-3-5-haiku-20241022"

	// DefaultRelevanceMaxTokens bounds the classifier answer.
	DefaultRelevanceMaxTokens = 512

	// DefaultMaxSelftextChars truncates post bodies in classifier prompts.
	DefaultMaxSelftextChars = 2000

	// DefaultEnvFile is read for the classifier API key when present.
	DefaultEnvFile = "anthropic_api_key.env"

	// DefaultOutputDir receives the JSONL corpus.
	DefaultOutputDir = "jsonl_crawl_full"

	// DefaultCorpusFile is the single-file corpus name inside OutputDir.
	DefaultCorpusFile = "reddit_crawl_final.jsonl"

	// DefaultReviewCSV is the review sheet written in review mode.
	DefaultReviewCSV = "stage1_posts_for_manual_review.csv"

	// DefaultCheckedFile and DefaultIncludedFile hold the progress sets.
	DefaultCheckedFile  = "checked_post_ids.json"
	DefaultIncludedFile = "included_post_ids.json"
)

// Mode selects what a crawl produces.
type Mode string

const (
	// ModeComments fetches every accepted thread and writes its comments to
	// the JSONL corpus.
	ModeComments Mode = "comments"

	// ModeReview only searches and classifies, writing accepted posts to the
	// review sheet without fetching their comments.
	ModeReview Mode = "review"
)

// SearchOrder fixes the iteration order over the search space. It decides
// which posts are crawled first when a target cuts a run short.
type SearchOrder string

const (
	// OrderSubredditMajor iterates subreddits in the outer loop.
	OrderSubredditMajor SearchOrder = "subreddit-major"

	// OrderKeywordMajor iterates keywords in the outer loop.
	OrderKeywordMajor SearchOrder = "keyword-major"
)

// OutputLayout selects the shape of the JSONL corpus.
type OutputLayout string

const (
	// LayoutPerPost writes one file per post, rewritten on every fetch.
	LayoutPerPost OutputLayout = "per-post"

	// LayoutCorpus appends every record to a single file.
	LayoutCorpus OutputLayout = "corpus"
)

// StateBackend selects where the checked/included sets are kept.
type StateBackend string

const (
	// BackendJSON keeps the sets in two JSON array files.
	BackendJSON StateBackend = "json"

	// BackendSQLite keeps the sets in the SQLite database in DBDir.
	BackendSQLite StateBackend = "sqlite"
)

// Config holds all configuration options for redditcorpus.
// It is built once at startup and passed down explicitly; nothing reads
// configuration from package-level state.
type Config struct {
	// Mode selects between the comment corpus and the review sheet.
	Mode Mode `yaml:"mode"`

	// Subreddits and Keywords span the search space.
	Subreddits []string `yaml:"subreddits"`
	Keywords   []string `yaml:"keywords"`

	// Order fixes the iteration order over the search space.
	Order SearchOrder `yaml:"order"`

	// MinComments drops posts with fewer comments.
	MinComments int `yaml:"min_comments"`

	// PostsPerQuery is the search result limit.
	PostsPerQuery int `yaml:"posts_per_query"`

	// BatchSize is the relevance gate batch size.
	BatchSize int `yaml:"batch_size"`

	// Targets stop the run once all configured values are reached.
	Targets model.Targets `yaml:"targets"`

	Delays    Delays          `yaml:"delays"`
	Backoff   Backoff         `yaml:"backoff"`
	HTTP      HTTP            `yaml:"http"`
	Relevance Relevance       `yaml:"relevance"`
	Filter    Filter          `yaml:"filter"`
	Output    Output          `yaml:"output"`
	State     State           `yaml:"state"`

	// ConfigFilePath is the configuration file that was loaded, if any.
	ConfigFilePath string `yaml:"-"`

	// DBDir holds the SQLite database with run history and, for the
	// sqlite backend, the progress sets.
	DBDir string `yaml:"-"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"-"`
}

// Delays are the fixed courtesy sleeps between requests.
type Delays struct {
	Search   time.Duration `yaml:"search"`
	Detail   time.Duration `yaml:"detail"`
	Classify time.Duration `yaml:"classify"`
}

// Backoff is the retry policy of the fetcher.
type Backoff struct {
	// BaseDelay is the first rate-limit sleep; it doubles on each retry.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxRetries is the total number of attempts per request.
	MaxRetries int `yaml:"max_retries"`

	// RetryServerErrors applies the backoff policy to 5xx responses
	// instead of failing immediately.
	RetryServerErrors bool `yaml:"retry_server_errors"`
}

// HTTP configures the HTTP client.
type HTTP struct {
	BaseURL     string        `yaml:"base_url"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBodySize int64         `yaml:"max_body_size"`

	// Proxy is an optional SOCKS5 proxy in host:port form.
	Proxy string `yaml:"proxy"`
}

// Relevance configures the batch relevance gate.
type Relevance struct {
	// Enabled turns the gate on. Without it every filtered post is accepted.
	Enabled bool `yaml:"enabled"`

	Model            string  `yaml:"model"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	MaxSelftextChars int     `yaml:"max_selftext_chars"`

	// EnvFile is loaded into the environment before reading the API key.
	EnvFile string `yaml:"env_file"`

	// APIKey is never read from the YAML file.
	APIKey string `yaml:"-"`
}

// Filter configures comment-level filtering.
type Filter struct {
	// SkipAutoModerator drops comments written by the AutoModerator bot.
	SkipAutoModerator bool `yaml:"skip_automoderator"`
}

// Output configures the sinks.
type Output struct {
	Dir        string       `yaml:"dir"`
	Layout     OutputLayout `yaml:"layout"`
	CorpusFile string       `yaml:"corpus_file"`
	ReviewCSV  string       `yaml:"review_csv"`
}

// State configures progress persistence.
type State struct {
	Backend      StateBackend `yaml:"backend"`
	CheckedFile  string       `yaml:"checked_file"`
	IncludedFile string       `yaml:"included_file"`
}

// DefaultSubreddits is the core subreddit list.
func DefaultSubreddits() []string {
	return []string{
		"recruiting",
		"recruitment",
		"humanresources",
		"recruitinghell",
	}
}

// DefaultKeywords is the core keyword list.
func DefaultKeywords() []string {
	return []string{
		"AI",
		"AI hiring",
		"AI recruiting",
		"AI screening",
		"AI interview",
	}
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Mode:          ModeComments,
		Subreddits:    DefaultSubreddits(),
		Keywords:      DefaultKeywords(),
		Order:         OrderSubredditMajor,
		MinComments:   DefaultMinComments,
		PostsPerQuery: DefaultPostsPerQuery,
		BatchSize:     DefaultBatchSize,
		Targets:       DefaultTargets(),
		Delays: Delays{
			Search:   DefaultSearchDelay,
			Detail:   DefaultDetailDelay,
			Classify: DefaultClassifyDelay,
		},
		Backoff: Backoff{
			BaseDelay:  DefaultBackoffBaseDelay,
			MaxRetries: DefaultMaxRetries,
		},
		HTTP: HTTP{
			BaseURL:     DefaultBaseURL,
			UserAgent:   DefaultUserAgent,
			Timeout:     DefaultTimeout,
			MaxBodySize: DefaultMaxBodySize,
		},
		Relevance: Relevance{
			Model:            DefaultRelevanceModel,
			MaxTokens:        DefaultRelevanceMaxTokens,
			MaxSelftextChars: DefaultMaxSelftextChars,
			EnvFile:          DefaultEnvFile,
		},
		Output: Output{
			Dir:        DefaultOutputDir,
			Layout:     LayoutPerPost,
			CorpusFile: DefaultCorpusFile,
			ReviewCSV:  DefaultReviewCSV,
		},
		State: State{
			Backend:      BackendJSON,
			CheckedFile:  DefaultCheckedFile,
			IncludedFile: DefaultIncludedFile,
		},
		DBDir: XDGDataDir(),
	}
}

// DefaultTargets returns the comments-mode stopping targets.
func DefaultTargets() model.Targets {
	return model.Targets{
		Comments: DefaultTargetComments,
		Words:    DefaultTargetWords,
	}
}

// DefaultReviewTargets returns the review-mode stopping targets.
// Review mode never counts words.
func DefaultReviewTargets() model.Targets {
	return model.Targets{
		Posts:    DefaultReviewTargetPosts,
		Comments: DefaultReviewTargetComments,
	}
}

// ApplyModeDefaults replaces, field by field, targets still at their
// comments-mode default with the review-mode default when Mode is review.
// A words target left at its default is therefore cleared in review mode.
// Callers that know a field was set explicitly re-apply it afterwards.
func (c *Config) ApplyModeDefaults() {
	if c.Mode != ModeReview {
		return
	}
	comments, review := DefaultTargets(), DefaultReviewTargets()
	if c.Targets.Posts == comments.Posts {
		c.Targets.Posts = review.Posts
	}
	if c.Targets.Comments == comments.Comments {
		c.Targets.Comments = review.Comments
	}
	if c.Targets.Words == comments.Words {
		c.Targets.Words = review.Words
	}
}

// SearchTargets enumerates the search space in the configured order.
func (c *Config) SearchTargets() []model.SearchTarget {
	targets := make([]model.SearchTarget, 0, len(c.Subreddits)*len(c.Keywords))
	if c.Order == OrderKeywordMajor {
		for _, kw := range c.Keywords {
			for _, sub := range c.Subreddits {
				targets = append(targets, model.SearchTarget{Subreddit: sub, Keyword: kw})
			}
		}
		return targets
	}
	for _, sub := range c.Subreddits {
		for _, kw := range c.Keywords {
			targets = append(targets, model.SearchTarget{Subreddit: sub, Keyword: kw})
		}
	}
	return targets
}

// CorpusPath returns the single-file corpus path.
func (c *Config) CorpusPath() string {
	return filepath.Join(c.Output.Dir, c.Output.CorpusFile)
}

// XDGDataDir returns the XDG data directory for redditcorpus.
// On Linux: ~/.local/share/redditcorpus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for redditcorpus.
// On Linux: ~/.config/redditcorpus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Mode != ModeComments && c.Mode != ModeReview {
		return ErrInvalidMode
	}
	if len(nonEmpty(c.Subreddits)) == 0 {
		return ErrNoSubreddits
	}
	if len(nonEmpty(c.Keywords)) == 0 {
		return ErrNoKeywords
	}
	if c.Order != OrderSubredditMajor && c.Order != OrderKeywordMajor {
		return ErrInvalidOrder
	}
	if c.MinComments < 0 {
		return ErrInvalidMinComments
	}
	if c.PostsPerQuery <= 0 || c.PostsPerQuery > 100 {
		return ErrInvalidPostsPerQuery
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Targets.Posts < 0 || c.Targets.Comments < 0 || c.Targets.Words < 0 {
		return ErrInvalidTargets
	}
	if c.Mode == ModeReview && c.Targets.Words > 0 {
		return ErrWordsTargetInReview
	}
	if c.Delays.Search < 0 || c.Delays.Detail < 0 || c.Delays.Classify < 0 {
		return ErrInvalidDelay
	}
	if c.Backoff.BaseDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Backoff.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.HTTP.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Output.Layout != LayoutPerPost && c.Output.Layout != LayoutCorpus {
		return ErrInvalidLayout
	}
	if c.State.Backend != BackendJSON && c.State.Backend != BackendSQLite {
		return ErrInvalidStateBackend
	}
	return nil
}

// Normalize trims list entries and drops empty ones. It is applied after
// every configuration layer so that "AI, " style edits do not produce
// empty searches.
func (c *Config) Normalize() {
	c.Subreddits = nonEmpty(c.Subreddits)
	for i, s := range c.Subreddits {
		c.Subreddits[i] = strings.TrimPrefix(s, "r/")
	}
	c.Keywords = nonEmpty(c.Keywords)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
