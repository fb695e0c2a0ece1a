package relevance

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/nao1215/redditcorpus/internal/model"
)

func candidates(titles ...string) []model.PostCandidate {
	out := make([]model.PostCandidate, len(titles))
	for i, title := range titles {
		out[i] = model.PostCandidate{ID: "p" + string(rune('a'+i)), Title: title, Selftext: "body " + title}
	}
	return out
}

func allFalse(t *testing.T, got []bool, n int) {
	t.Helper()

	if len(got) != n {
		t.Fatalf("expected %d answers, got %d", n, len(got))
	}
	for i, v := range got {
		if v {
			t.Errorf("expected answer %d to be false", i)
		}
	}
}

// TestGateApprove tests the mapping from classifier answers to approvals.
func TestGateApprove(t *testing.T) {
	t.Parallel()

	t.Run("structured answer", func(t *testing.T) {
		t.Parallel()

		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			return `{"answers":["yes","no"]}`, nil
		}))
		got, err := g.Approve(t.Context(), candidates("AI screening", "Salary question"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got[0] || got[1] {
			t.Errorf("expected [true false], got %v", got)
		}
	})

	t.Run("commas inside titles do not shift answers", func(t *testing.T) {
		t.Parallel()

		var prompt string
		g := NewGate(ClassifierFunc(func(_ context.Context, _, user string) (string, error) {
			prompt = user
			return "1: no\n2: yes\n3: no", nil
		}))
		batch := candidates("Hiring, firing, and AI", "AI, resumes, ATS", "Lunch, anyone?")
		got, err := g.Approve(t.Context(), batch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got[0] || !got[1] || got[2] {
			t.Errorf("expected [false true false], got %v", got)
		}
		if !strings.Contains(prompt, "2. Title: AI, resumes, ATS") {
			t.Errorf("expected numbered titles in prompt, got %q", prompt)
		}
	})

	t.Run("short answer list rejects the whole batch", func(t *testing.T) {
		t.Parallel()

		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			return "yes, yes", nil
		}))
		got, err := g.Approve(t.Context(), candidates("a", "b", "c"))
		if !errors.Is(err, ErrClassifierMismatch) {
			t.Errorf("expected ErrClassifierMismatch, got %v", err)
		}
		allFalse(t, got, 3)
	})

	t.Run("long answer list rejects the whole batch", func(t *testing.T) {
		t.Parallel()

		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			return "yes, yes, yes, yes", nil
		}))
		got, err := g.Approve(t.Context(), candidates("a", "b"))
		if !errors.Is(err, ErrClassifierMismatch) {
			t.Errorf("expected ErrClassifierMismatch, got %v", err)
		}
		allFalse(t, got, 2)
	})

	t.Run("classifier error rejects the whole batch", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("overloaded")
		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			return "", boom
		}))
		got, err := g.Approve(t.Context(), candidates("a", "b"))
		if !errors.Is(err, boom) {
			t.Errorf("expected classifier error, got %v", err)
		}
		allFalse(t, got, 2)
	})

	t.Run("oversized batch is rejected without a call", func(t *testing.T) {
		t.Parallel()

		called := false
		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			called = true
			return "", nil
		}), WithBatchSize(2))
		got, err := g.Approve(t.Context(), candidates("a", "b", "c"))
		if !errors.Is(err, ErrBatchTooLarge) {
			t.Errorf("expected ErrBatchTooLarge, got %v", err)
		}
		if called {
			t.Error("expected classifier not to be called")
		}
		allFalse(t, got, 3)
	})

	t.Run("empty batch needs no call", func(t *testing.T) {
		t.Parallel()

		g := NewGate(ClassifierFunc(func(context.Context, string, string) (string, error) {
			t.Error("unexpected classifier call")
			return "", nil
		}))
		got, err := g.Approve(t.Context(), nil)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v %v", got, err)
		}
	})
}

// TestBuildPrompt tests prompt layout and truncation.
func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	batch := []model.PostCandidate{
		{Title: "AI interview\nbot", Selftext: strings.Repeat("x", 50)},
		{Title: "Second", Selftext: ""},
	}
	prompt := BuildPrompt(batch, 10)

	if !strings.Contains(prompt, "1. Title: AI interview bot\n   Selftext: xxxxxxxxxx...\n") {
		t.Errorf("unexpected first entry in %q", prompt)
	}
	if !strings.Contains(prompt, "2. Title: Second\n   Selftext: \n") {
		t.Errorf("unexpected second entry in %q", prompt)
	}
	if !strings.HasPrefix(prompt, "There are 2 posts.") {
		t.Errorf("expected post count header, got %q", prompt)
	}
}

// TestAnthropicClassifier tests the llmkit-backed classifier without network access.
func TestAnthropicClassifier(t *testing.T) {
	t.Parallel()

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		if _, err := NewAnthropicClassifier(" "); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		c, err := NewAnthropicClassifier("sk-ant-test", WithModel("claude-test"), WithMaxTokens(64), WithTemperature(0.5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.settings.Model != "claude-test" || c.settings.MaxTokens != 64 || c.settings.Temperature != 0.5 {
			t.Errorf("unexpected settings %+v", c.settings)
		}
	})

	t.Run("returns completion text", func(t *testing.T) {
		t.Parallel()

		c, err := NewAnthropicClassifier("sk-ant-test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c.complete = func(system, user string) (string, error) {
			if system != SystemPrompt || user != "posts" {
				t.Errorf("unexpected prompts %q %q", system, user)
			}
			return `{"answers":["yes"]}`, nil
		}
		got, err := c.Classify(t.Context(), SystemPrompt, "posts")
		if err != nil || got != `{"answers":["yes"]}` {
			t.Errorf("unexpected result %q %v", got, err)
		}
	})

	t.Run("cancelled context returns early", func(t *testing.T) {
		t.Parallel()

		c, err := NewAnthropicClassifier("sk-ant-test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		release := make(chan struct{})
		defer close(release)
		c.complete = func(string, string) (string, error) {
			<-release
			return "", nil
		}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := c.Classify(ctx, SystemPrompt, "posts"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestLoadAPIKey tests reading the key from an env file.
func TestLoadAPIKey(t *testing.T) {
	// t.Setenv rules out t.Parallel here.
	t.Setenv(APIKeyEnv, "")

	dir := t.TempDir()
	envFile := dir + "/anthropic_api_key.env"
	if err := writeFile(envFile, APIKeyEnv+"=sk-ant-fromfile\n"); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	key, err := LoadAPIKey(envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-ant-fromfile" {
		t.Errorf("expected key from file, got %q", key)
	}

	t.Setenv(APIKeyEnv, "sk-ant-fromenv")
	if key, _ := LoadAPIKey(envFile); key != "sk-ant-fromenv" {
		t.Errorf("expected environment to win over the file, got %q", key)
	}

	t.Setenv(APIKeyEnv, "")
	if _, err := LoadAPIKey(dir + "/missing.env"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
