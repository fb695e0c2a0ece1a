package log

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

const testAPIKey = "sk-ant-REDACTED"

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "cookie key is sanitized", key: "cookie", value: "reddit_session=abc123", wantMask: true},
		{name: "Cookie key (uppercase) is sanitized", key: "Cookie", value: "reddit_session=abc123", wantMask: true},
		{name: "authorization key is sanitized", key: "authorization", value: "token123", wantMask: true},
		{name: "x-api-key header is sanitized", key: "x-api-key", value: "plainvalue", wantMask: true},
		{name: "anthropic_api_key is sanitized", key: "ANTHROPIC_API_KEY", value: "plainvalue", wantMask: true},
		{name: "key containing api_key is sanitized", key: "classifier_api_key", value: "plainvalue", wantMask: true},
		{name: "password key is sanitized", key: "proxy_password", value: "hunter2", wantMask: true},
		{name: "author key is NOT sanitized", key: "author", value: "spez", wantMask: false},
		{name: "subreddit key is NOT sanitized", key: "subreddit", value: "recruiting", wantMask: false},
		{name: "post id is NOT sanitized", key: "post_id", value: "1abc2de", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			assertMasked(t, buf.String(), tt.value, tt.wantMask)
		})
	}
}

// TestSecureHandler_SanitizesSensitivePatterns tests that values matching
// sensitive patterns are sanitized regardless of their key.
func TestSecureHandler_SanitizesSensitivePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "Anthropic key is sanitized", key: "value", value: testAPIKey, wantMask: true},
		{name: "Bearer token is sanitized", key: "header", value: "Bearer abc.def.ghi", wantMask: true},
		{name: "Basic auth is sanitized", key: "header", value: "Basic dXNlcm5hbWU6cGFzc3dvcmQ=", wantMask: true},
		{name: "long opaque token is sanitized", key: "data", value: strings.Repeat("a1B2", 12), wantMask: true},
		{name: "thread URL is NOT sanitized", key: "url", value: "https://www.reddit.com/r/recruiting/comments/1abc2de/ai_screening/", wantMask: false},
		{name: "short string is NOT sanitized", key: "status", value: "ok", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			assertMasked(t, buf.String(), tt.value, tt.wantMask)
		})
	}
}

func assertMasked(t *testing.T, output, value string, wantMask bool) {
	t.Helper()

	if wantMask {
		if strings.Contains(output, value) {
			t.Errorf("expected value %q to be masked, but found in output: %s", value, output)
		}
		if !strings.Contains(output, MaskValue) {
			t.Errorf("expected mask value %q in output, but not found: %s", MaskValue, output)
		}
		return
	}
	if !strings.Contains(output, value) {
		t.Errorf("expected value %q to be present in output, but not found: %s", value, output)
	}
}

// TestSecureHandler_RedactsEmbeddedKeys tests that API keys inside longer
// strings, messages and errors are replaced in place.
func TestSecureHandler_RedactsEmbeddedKeys(t *testing.T) {
	t.Parallel()

	t.Run("string attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Warn("classifier failed", "detail", "request with key "+testAPIKey+" rejected")

		output := buf.String()
		if strings.Contains(output, testAPIKey) {
			t.Errorf("expected key to be redacted, got: %s", output)
		}
		if !strings.Contains(output, "rejected") {
			t.Errorf("expected surrounding text to be kept, got: %s", output)
		}
	})

	t.Run("error attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		err := fmt.Errorf("classify: %w", errors.New("invalid x-api-key "+testAPIKey))
		logger.Warn("classifier failed", "error", err)

		output := buf.String()
		if strings.Contains(output, testAPIKey) {
			t.Errorf("expected key to be redacted, got: %s", output)
		}
		if !strings.Contains(output, "classify") {
			t.Errorf("expected error text to be kept, got: %s", output)
		}
	})

	t.Run("message", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Warn("using " + testAPIKey)

		if strings.Contains(buf.String(), testAPIKey) {
			t.Errorf("expected key to be redacted, got: %s", buf.String())
		}
	})
}

// TestSecureHandler_LogLevels tests that log levels are respected.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		logLevel   slog.Level
		shouldShow bool
	}{
		{name: "debug message shown in verbose mode", verbose: true, logLevel: slog.LevelDebug, shouldShow: true},
		{name: "debug message hidden in non-verbose mode", verbose: false, logLevel: slog.LevelDebug, shouldShow: false},
		{name: "info message hidden in non-verbose mode", verbose: false, logLevel: slog.LevelInfo, shouldShow: false},
		{name: "warn message shown in non-verbose mode", verbose: false, logLevel: slog.LevelWarn, shouldShow: true},
		{name: "error message shown in non-verbose mode", verbose: false, logLevel: slog.LevelError, shouldShow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, tt.verbose)

			testMsg := "test_unique_message_12345"
			logger.Log(t.Context(), tt.logLevel, testMsg)

			hasMessage := strings.Contains(buf.String(), testMsg)
			if tt.shouldShow && !hasMessage {
				t.Errorf("expected message to be shown, but not found in output: %s", buf.String())
			}
			if !tt.shouldShow && hasMessage {
				t.Errorf("expected message to be hidden, but found in output: %s", buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests that WithAttrs sanitizes attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.With("api_key", "secret123").Info("test message")

	output := buf.String()
	if strings.Contains(output, "secret123") {
		t.Errorf("expected api_key to be masked in WithAttrs, but found in output: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("expected mask value in output, but not found: %s", output)
	}
}

// TestSecureHandler_WithGroup tests that grouped attributes are still sanitized.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.WithGroup("request").Info("test message",
		"url", "https://www.reddit.com/r/recruiting/search.json",
		"cookie", "reddit_session=abc",
	)

	output := buf.String()
	if !strings.Contains(output, "https://www.reddit.com/r/recruiting/search.json") {
		t.Errorf("expected url to be visible, but not found in output: %s", output)
	}
	if strings.Contains(output, "reddit_session=abc") {
		t.Errorf("expected cookie to be masked, but found in output: %s", output)
	}
}

// TestNewSecureJSONLogger tests JSON logger creation.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)

	logger.Info("test message", "password", "hunter2")

	output := buf.String()
	if !strings.HasPrefix(output, "{") {
		t.Errorf("expected JSON format, but got: %s", output)
	}
	if strings.Contains(output, "hunter2") {
		t.Errorf("expected password to be masked, but found in output: %s", output)
	}
}

// TestContainsSensitiveKeyword tests the containsSensitiveKeyword helper.
func TestContainsSensitiveKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		expected bool
	}{
		{"user_password", true},
		{"client_secret", true},
		{"credential_file", true},
		{"anthropic_api_key", true},

		{"url", false},
		{"author", false},
		{"keyword", false},
		{"primary_key", false},
		{"sort_key", false},
		{"max_tokens", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			if got := containsSensitiveKeyword(tt.key); got != tt.expected {
				t.Errorf("containsSensitiveKeyword(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

// TestNewSecureHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewSecureHandler(nil)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
	slog.New(handler).Info("test message")
}
