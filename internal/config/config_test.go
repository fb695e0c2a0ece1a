package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/redditcorpus/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail when a default moves.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default mode is comments", func(t *testing.T) {
		t.Parallel()
		if cfg.Mode != ModeComments {
			t.Errorf("expected Mode to be %q, got %q", ModeComments, cfg.Mode)
		}
	})

	t.Run("default order is subreddit-major", func(t *testing.T) {
		t.Parallel()
		if cfg.Order != OrderSubredditMajor {
			t.Errorf("expected Order to be %q, got %q", OrderSubredditMajor, cfg.Order)
		}
	})

	t.Run("default MinComments is 25", func(t *testing.T) {
		t.Parallel()
		if cfg.MinComments != 25 {
			t.Errorf("expected MinComments to be 25, got %d", cfg.MinComments)
		}
	})

	t.Run("default BatchSize is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 10 {
			t.Errorf("expected BatchSize to be 10, got %d", cfg.BatchSize)
		}
	})

	t.Run("default targets are 20000 comments and 150000 words", func(t *testing.T) {
		t.Parallel()
		want := model.Targets{Comments: 20000, Words: 150000}
		if cfg.Targets != want {
			t.Errorf("expected Targets to be %+v, got %+v", want, cfg.Targets)
		}
	})

	t.Run("default delays", func(t *testing.T) {
		t.Parallel()
		if cfg.Delays.Search != 2*time.Second {
			t.Errorf("expected search delay 2s, got %v", cfg.Delays.Search)
		}
		if cfg.Delays.Detail != 3*time.Second {
			t.Errorf("expected detail delay 3s, got %v", cfg.Delays.Detail)
		}
		if cfg.Delays.Classify != 2*time.Second {
			t.Errorf("expected classify delay 2s, got %v", cfg.Delays.Classify)
		}
	})

	t.Run("default backoff is 5s base and 3 attempts", func(t *testing.T) {
		t.Parallel()
		if cfg.Backoff.BaseDelay != 5*time.Second {
			t.Errorf("expected base delay 5s, got %v", cfg.Backoff.BaseDelay)
		}
		if cfg.Backoff.MaxRetries != 3 {
			t.Errorf("expected MaxRetries 3, got %d", cfg.Backoff.MaxRetries)
		}
		if cfg.Backoff.RetryServerErrors {
			t.Error("expected RetryServerErrors to be false")
		}
	})

	t.Run("relevance gate is disabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Relevance.Enabled {
			t.Error("expected Relevance.Enabled to be false")
		}
	})

	t.Run("default state files", func(t *testing.T) {
		t.Parallel()
		if cfg.State.CheckedFile != "checked_post_ids.json" {
			t.Errorf("unexpected checked file %q", cfg.State.CheckedFile)
		}
		if cfg.State.IncludedFile != "included_post_ids.json" {
			t.Errorf("unexpected included file %q", cfg.State.IncludedFile)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := NewConfig().Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case breaks exactly one validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"unknown mode", func(c *Config) { c.Mode = "bulk" }, ErrInvalidMode},
		{"no subreddits", func(c *Config) { c.Subreddits = nil }, ErrNoSubreddits},
		{"blank subreddits", func(c *Config) { c.Subreddits = []string{" ", ""} }, ErrNoSubreddits},
		{"no keywords", func(c *Config) { c.Keywords = []string{} }, ErrNoKeywords},
		{"unknown order", func(c *Config) { c.Order = "random" }, ErrInvalidOrder},
		{"negative min comments", func(c *Config) { c.MinComments = -1 }, ErrInvalidMinComments},
		{"zero min comments is allowed", func(c *Config) { c.MinComments = 0 }, nil},
		{"posts per query over API limit", func(c *Config) { c.PostsPerQuery = 101 }, ErrInvalidPostsPerQuery},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative target", func(c *Config) { c.Targets.Posts = -5 }, ErrInvalidTargets},
		{"all zero targets are allowed", func(c *Config) { c.Targets = model.Targets{} }, nil},
		{"words target in review mode", func(c *Config) { c.Mode = ModeReview }, ErrWordsTargetInReview},
		{"review mode without words target", func(c *Config) {
			c.Mode = ModeReview
			c.Targets = model.Targets{Comments: 20000}
		}, nil},
		{"negative delay", func(c *Config) { c.Delays.Detail = -time.Second }, ErrInvalidDelay},
		{"negative backoff delay", func(c *Config) { c.Backoff.BaseDelay = -time.Second }, ErrInvalidDelay},
		{"zero retries", func(c *Config) { c.Backoff.MaxRetries = 0 }, ErrInvalidMaxRetries},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, ErrInvalidTimeout},
		{"negative body size", func(c *Config) { c.HTTP.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"unknown layout", func(c *Config) { c.Output.Layout = "tar" }, ErrInvalidLayout},
		{"unknown backend", func(c *Config) { c.State.Backend = "redis" }, ErrInvalidStateBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestSearchTargets tests the enumeration order of the search space.
func TestSearchTargets(t *testing.T) {
	t.Parallel()

	t.Run("subreddit-major iterates keywords inside subreddits", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Subreddits = []string{"a", "b"}
		cfg.Keywords = []string{"x", "y"}

		got := cfg.SearchTargets()
		want := []model.SearchTarget{
			{Subreddit: "a", Keyword: "x"},
			{Subreddit: "a", Keyword: "y"},
			{Subreddit: "b", Keyword: "x"},
			{Subreddit: "b", Keyword: "y"},
		}
		assertTargets(t, got, want)
	})

	t.Run("keyword-major iterates subreddits inside keywords", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Order = OrderKeywordMajor
		cfg.Subreddits = []string{"a", "b"}
		cfg.Keywords = []string{"x", "y"}

		got := cfg.SearchTargets()
		want := []model.SearchTarget{
			{Subreddit: "a", Keyword: "x"},
			{Subreddit: "b", Keyword: "x"},
			{Subreddit: "a", Keyword: "y"},
			{Subreddit: "b", Keyword: "y"},
		}
		assertTargets(t, got, want)
	})
}

func assertTargets(t *testing.T, got, want []model.SearchTarget) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected %d targets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("target %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestApplyModeDefaults tests the review-mode target swap.
func TestApplyModeDefaults(t *testing.T) {
	t.Parallel()

	t.Run("review mode with default targets", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Mode = ModeReview
		cfg.ApplyModeDefaults()
		if cfg.Targets != DefaultReviewTargets() {
			t.Errorf("expected review targets, got %+v", cfg.Targets)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("review mode keeps explicit targets", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Mode = ModeReview
		cfg.Targets = model.Targets{Posts: 5}
		cfg.ApplyModeDefaults()
		if cfg.Targets != (model.Targets{Posts: 5}) {
			t.Errorf("expected explicit targets kept, got %+v", cfg.Targets)
		}
	})

	t.Run("review mode with only a comments target", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Mode = ModeReview
		cfg.Targets.Comments = 30000
		cfg.ApplyModeDefaults()
		want := model.Targets{Posts: DefaultReviewTargetPosts, Comments: 30000}
		if cfg.Targets != want {
			t.Errorf("expected %+v, got %+v", want, cfg.Targets)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("review mode keeps a non-default words target", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Mode = ModeReview
		cfg.Targets.Words = 10
		cfg.ApplyModeDefaults()
		if cfg.Targets.Words != 10 {
			t.Errorf("expected words target 10 kept, got %d", cfg.Targets.Words)
		}
		if !errors.Is(cfg.Validate(), ErrWordsTargetInReview) {
			t.Error("expected ErrWordsTargetInReview")
		}
	})

	t.Run("comments mode is unchanged", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyModeDefaults()
		if cfg.Targets != DefaultTargets() {
			t.Errorf("expected comments targets, got %+v", cfg.Targets)
		}
	})
}

// TestNormalize tests that list entries are trimmed and prefixes removed.
func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Subreddits = []string{" r/recruiting ", "", "hr"}
	cfg.Keywords = []string{"AI", "  ", " AI hiring"}
	cfg.Normalize()

	if len(cfg.Subreddits) != 2 || cfg.Subreddits[0] != "recruiting" || cfg.Subreddits[1] != "hr" {
		t.Errorf("unexpected subreddits %v", cfg.Subreddits)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[1] != "AI hiring" {
		t.Errorf("unexpected keywords %v", cfg.Keywords)
	}
}

// TestLoadConfigFile tests loading configuration from YAML files.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("overlays file values onto defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `mode: review
subreddits:
  - recruiting
keywords:
  - AI hiring
targets:
  comments: 500
  words: 0
delays:
  detail: 500ms
backoff:
  retry_server_errors: true
output:
  layout: corpus
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Mode != ModeReview {
			t.Errorf("expected review mode, got %q", cfg.Mode)
		}
		if len(cfg.Subreddits) != 1 || cfg.Subreddits[0] != "recruiting" {
			t.Errorf("unexpected subreddits %v", cfg.Subreddits)
		}
		if cfg.Targets.Comments != 500 || cfg.Targets.Words != 0 {
			t.Errorf("unexpected targets %+v", cfg.Targets)
		}
		if cfg.Delays.Detail != 500*time.Millisecond {
			t.Errorf("expected detail delay 500ms, got %v", cfg.Delays.Detail)
		}
		// Keys absent from the file keep their defaults.
		if cfg.Delays.Search != DefaultSearchDelay {
			t.Errorf("expected search delay to stay at default, got %v", cfg.Delays.Search)
		}
		if cfg.Backoff.MaxRetries != DefaultMaxRetries {
			t.Errorf("expected MaxRetries to stay at default, got %d", cfg.Backoff.MaxRetries)
		}
		if !cfg.Backoff.RetryServerErrors {
			t.Error("expected RetryServerErrors to be true")
		}
		if cfg.Output.Layout != LayoutCorpus {
			t.Errorf("expected corpus layout, got %q", cfg.Output.Layout)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected ConfigFilePath %q, got %q", path, cfg.ConfigFilePath)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected loaded config to be valid, got %v", err)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), NewConfig())
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(path, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BatchSize != DefaultBatchSize {
			t.Errorf("expected default batch size, got %d", cfg.BatchSize)
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "typo.yaml")
		if err := os.WriteFile(path, []byte("min_coments: 5\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if err := LoadConfigFile(path, NewConfig()); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("subreddits: [unclosed\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if err := LoadConfigFile(path, NewConfig()); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests configuration file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("mode: comments\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("expected data dir to end with %q, got %q", AppName, XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("expected config dir to end with %q, got %q", AppName, XDGConfigDir())
	}
}
