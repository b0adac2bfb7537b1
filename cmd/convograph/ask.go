package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/analyzer"
	"github.com/hurttlocker/convograph/internal/config"
	"github.com/hurttlocker/convograph/internal/llm"
	"github.com/hurttlocker/convograph/internal/logger"
)

const defaultAskLimit = 5

func runAsk(ctx context.Context, args []string) error {
	var (
		words  []string
		asJSON bool
		limit  = defaultAskLimit
	)
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--json":
			asJSON = true
		case arg == "--limit" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return fmt.Errorf("--limit must be a positive integer")
			}
			limit = n
			i++
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			words = append(words, arg)
		}
	}
	question := strings.TrimSpace(strings.Join(words, " "))
	if question == "" {
		return fmt.Errorf("usage: convograph ask <question> [--limit N] [--json]")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := loadGraph(ctx, s)
	if err != nil {
		return err
	}
	insights := analyzer.GraphInsights(g, question, limit)

	memories, err := s.SearchMemories(ctx, question)
	if err != nil {
		return fmt.Errorf("searching memories: %w", err)
	}
	for i, m := range memories {
		if i == limit {
			break
		}
		insights = append(insights, m.Insight())
	}

	client := newLLMClient(cfg)
	answer, err := client.Query(ctx, llm.Question{Question: question, Insights: insights})
	if err != nil {
		return fmt.Errorf("querying %s: %w", client.Name(), err)
	}

	if asJSON {
		return printJSON(answer)
	}
	fmt.Fprintln(stdout, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(stdout, "\nBased on:")
		for _, src := range answer.Sources {
			fmt.Fprintf(stdout, "  - %s\n", src)
		}
	}
	return nil
}

// newLLMClient returns an unavailable client when no API key is configured.
func newLLMClient(cfg config.ResolvedConfig) *llm.Client {
	c := llm.New(llm.Config{
		Model:   cfg.LLMModel.Value,
		APIKey:  cfg.LLMAPIKey.Value,
		BaseURL: cfg.LLMBaseURL.Value,
	})
	logger.Get().Debug("llm client", zap.String("provider", c.Name()))
	return c
}
