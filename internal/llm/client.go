package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/logger"
)

const (
	// NotAvailableAnswer is returned by Query when no provider is configured.
	NotAvailableAnswer = "LLM is not available. Please set OPENAI_API_KEY environment variable."
	// NotAvailableSummary is returned by SummarizeGraph when no provider is configured.
	NotAvailableSummary = "LLM is not available for graph summarization."

	answerConfidence = 0.9
	maxAnswerTokens  = 1024
)

// Question is a natural-language query plus the graph facts to ground it.
type Question struct {
	Question string   `json:"question" validate:"required"`
	Context  string   `json:"context,omitempty"`
	Insights []string `json:"insights,omitempty"`
}

// Answer is the model's reply. Sources echoes the insights it was given.
type Answer struct {
	Text       string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

// Client composes prompts and relays them to a Provider.
type Client struct {
	provider Provider
	log      *zap.Logger
}

// New builds a client from config. A missing API key yields a client whose
// Available reports false.
func New(cfg Config) *Client {
	p, err := NewProvider(cfg)
	if err != nil {
		return NewWithProvider(nil)
	}
	return NewWithProvider(p)
}

// NewWithProvider wraps an existing provider. p may be nil.
func NewWithProvider(p Provider) *Client {
	return &Client{provider: p, log: logger.Get()}
}

// Available reports whether a provider is configured.
func (c *Client) Available() bool {
	return c != nil && c.provider != nil
}

// Name returns the provider name, or "none".
func (c *Client) Name() string {
	if !c.Available() {
		return "none"
	}
	return c.provider.Name()
}

// Query answers a question. Without a provider it returns NotAvailableAnswer
// with zero confidence and no error.
func (c *Client) Query(ctx context.Context, q Question) (Answer, error) {
	if !c.Available() {
		return Answer{Text: NotAvailableAnswer, Sources: []string{}}, nil
	}

	start := time.Now()
	text, err := c.provider.Complete(ctx, BuildQueryPrompt(q), CompletionOpts{MaxTokens: maxAnswerTokens})
	if err != nil {
		c.log.Warn("llm query failed", zap.String("provider", c.provider.Name()), zap.Error(err))
		return Answer{Sources: []string{}}, err
	}
	c.log.Debug("llm query",
		zap.String("provider", c.provider.Name()),
		zap.Int("insights", len(q.Insights)),
		zap.Duration("elapsed", time.Since(start)),
	)

	sources := q.Insights
	if sources == nil {
		sources = []string{}
	}
	return Answer{Text: text, Confidence: answerConfidence, Sources: sources}, nil
}

// SummarizeGraph asks for a prose summary of the graph.
func (c *Client) SummarizeGraph(ctx context.Context, nodes []graph.Node, edges []graph.Edge) (string, error) {
	if !c.Available() {
		return NotAvailableSummary, nil
	}
	text, err := c.provider.Complete(ctx, BuildGraphSummaryPrompt(nodes, edges), CompletionOpts{MaxTokens: maxAnswerTokens})
	if err != nil {
		return "", err
	}
	return text, nil
}
