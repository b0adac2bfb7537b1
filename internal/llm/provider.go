// Package llm answers questions about the knowledge graph through an
// OpenAI-compatible chat completion API. Prompts are built from graph
// insights; without an API key every call degrades to a fixed answer.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "openai/gpt-4o-mini").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // Max tokens to generate (0 = provider default)
	Temperature float32 // 0.0-2.0 (0 = deterministic)
	Model       string  // Override model for this request (empty = use provider default)
	Format      string  // "json" for structured output, empty for plain text
	System      string  // System prompt (optional)
}

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config holds provider configuration.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string // Optional URL override, e.g. a local OpenAI-compatible gateway
}

// NewProvider creates an OpenAI-compatible provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("LLM provider requires OPENAI_API_KEY or CONVOGRAPH_LLM_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return newOpenAIProvider(key, model, strings.TrimRight(cfg.BaseURL, "/")), nil
}
