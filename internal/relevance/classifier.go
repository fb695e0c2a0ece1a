package relevance

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the Anthropic API key.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// AnthropicClassifier classifies with an Anthropic model through llmkit,
// requesting structured output that matches the answers schema.
type AnthropicClassifier struct {
	apiKey   string
	settings types.RequestSettings

	// complete performs one request; tests replace it.
	complete func(systemPrompt, userPrompt string) (string, error)
}

// AnthropicOption configures an AnthropicClassifier.
type AnthropicOption func(*AnthropicClassifier)

// WithModel sets the model name.
func WithModel(name string) AnthropicOption {
	return func(c *AnthropicClassifier) {
		if name != "" {
			c.settings.Model = name
		}
	}
}

// WithMaxTokens bounds the answer length.
func WithMaxTokens(n int) AnthropicOption {
	return func(c *AnthropicClassifier) {
		if n > 0 {
			c.settings.MaxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AnthropicOption {
	return func(c *AnthropicClassifier) {
		c.settings.Temperature = t
	}
}

// NewAnthropicClassifier creates a classifier authenticated with apiKey.
func NewAnthropicClassifier(apiKey string, opts ...AnthropicOption) (*AnthropicClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &AnthropicClassifier{
		apiKey: apiKey,
		settings: types.RequestSettings{
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   512,
			Temperature: 0,
		},
	}
	c.complete = c.prompt
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// prompt sends one structured-output request.
func (c *AnthropicClassifier) prompt(systemPrompt, userPrompt string) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, answerSchema, c.apiKey, c.settings)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Content[0].Text, nil
}

// Classify implements Classifier. llmkit calls are not cancellable, so the
// call runs in a goroutine and Classify returns as soon as ctx is done;
// the abandoned request finishes in the background.
func (c *AnthropicClassifier) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		text, err := c.complete(systemPrompt, userPrompt)
		ch <- result{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// LoadAPIKey returns the API key from the environment, falling back to
// envFile when the variable is unset or empty. A missing envFile is not an
// error. The process environment is not modified.
func LoadAPIKey(envFile string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		return key, nil
	}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		if key := strings.TrimSpace(values[APIKeyEnv]); key != "" {
			return key, nil
		}
	}
	return "", ErrMissingAPIKey
}
