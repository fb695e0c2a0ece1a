package relevance

import (
	"context"
	"fmt"

	"github.com/nao1215/redditcorpus/internal/model"
)

// Classifier sends a prompt to a language model and returns its text answer.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// Gate judges batches of posts with a single classifier call per batch.
type Gate struct {
	classifier  Classifier
	batchSize   int
	maxSelftext int
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithBatchSize sets the largest batch Approve accepts.
func WithBatchSize(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxSelftext truncates post bodies in the prompt to n runes.
func WithMaxSelftext(n int) GateOption {
	return func(g *Gate) {
		g.maxSelftext = n
	}
}

// NewGate creates a Gate on top of classifier.
func NewGate(classifier Classifier, opts ...GateOption) *Gate {
	g := &Gate{
		classifier:  classifier,
		batchSize:   10,
		maxSelftext: 2000,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Approve returns one boolean per post in batch, in order. On any failure
// every answer is false and the error says why.
func (g *Gate) Approve(ctx context.Context, batch []model.PostCandidate) ([]bool, error) {
	rejected := make([]bool, len(batch))
	if len(batch) == 0 {
		return rejected, nil
	}
	if len(batch) > g.batchSize {
		return rejected, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(batch), g.batchSize)
	}

	answer, err := g.classifier.Classify(ctx, SystemPrompt, BuildPrompt(batch, g.maxSelftext))
	if err != nil {
		return rejected, fmt.Errorf("classify batch of %d: %w", len(batch), err)
	}

	approvals, err := ParseAnswers(answer, len(batch))
	if err != nil {
		return rejected, err
	}
	return approvals, nil
}
