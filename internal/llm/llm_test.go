package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/convograph/internal/graph"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// newChatServer fakes /v1/chat/completions, recording the last request.
func newChatServer(t *testing.T, reply string, status int) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   got.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	p, err := NewProvider(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai/"+DefaultModel, p.Name())
}

func TestClientUnavailable(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Available())
	assert.Equal(t, "none", c.Name())

	ans, err := c.Query(context.Background(), Question{Question: "What?", Insights: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, NotAvailableAnswer, ans.Text)
	assert.Zero(t, ans.Confidence)
	assert.Empty(t, ans.Sources)

	sum, err := c.SummarizeGraph(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, NotAvailableSummary, sum)

	var nilClient *Client
	assert.False(t, nilClient.Available())
}

func TestClientQuery(t *testing.T) {
	srv, got := newChatServer(t, "  Alex likes TypeScript.  ", http.StatusOK)
	c := New(Config{APIKey: "test-key", Model: "gpt-test", BaseURL: srv.URL + "/v1/"})
	require.True(t, c.Available())

	insights := []string{"alex likes typescript (weight 0.9)"}
	ans, err := c.Query(context.Background(), Question{Question: "What does Alex like?", Insights: insights})
	require.NoError(t, err)

	assert.Equal(t, "Alex likes TypeScript.", ans.Text)
	assert.Equal(t, 0.9, ans.Confidence)
	assert.Equal(t, insights, ans.Sources)

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, maxAnswerTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "1. alex likes typescript (weight 0.9)")
	assert.Contains(t, got.Messages[0].Content, "Question: What does Alex like?")
	assert.Nil(t, got.ResponseFormat)
}

func TestClientQueryError(t *testing.T) {
	srv, _ := newChatServer(t, "", http.StatusTooManyRequests)
	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	ans, err := c.Query(context.Background(), Question{Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
	assert.Empty(t, ans.Text)
}

func TestProviderCompleteOptions(t *testing.T) {
	srv, got := newChatServer(t, `{"ok":true}`, http.StatusOK)
	p, err := NewProvider(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "prompt", CompletionOpts{System: "be terse", Format: "json", Model: "override"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "override", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestSummarizeGraph(t *testing.T) {
	srv, got := newChatServer(t, "A small graph.", http.StatusOK)
	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	nodes := []graph.Node{{ID: "alex", Type: "person", Label: "Alex"}}
	edges := []graph.Edge{{Source: "alex", Target: "go", Type: "likes", Weight: 0.9}}
	sum, err := c.SummarizeGraph(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.Equal(t, "A small graph.", sum)
	assert.Contains(t, got.Messages[0].Content, "- alex --[likes]--> go (weight: 0.9)")
}

func TestBuildQueryPrompt(t *testing.T) {
	p := BuildQueryPrompt(Question{
		Question: "Who knows Docker?",
		Context:  "team chat",
		Insights: []string{"maria knows docker", "alex likes go"},
	})
	assert.True(t, strings.HasPrefix(p, "Based on the following knowledge graph insights:\n\n1. maria knows docker\n2. alex likes go\n\n"))
	assert.Contains(t, p, "Context: team chat\n\nQuestion: Who knows Docker?\n\n")
	assert.True(t, strings.HasSuffix(p, "Be specific and cite the insights when applicable."))

	bare := BuildQueryPrompt(Question{Question: "Hi?"})
	assert.True(t, strings.HasPrefix(bare, "Question: Hi?\n\n"))
}

func TestBuildGraphSummaryPrompt_Truncates(t *testing.T) {
	var nodes []graph.Node
	var edges []graph.Edge
	for i := 0; i < 25; i++ {
		nodes = append(nodes, graph.Node{ID: fmt.Sprint(i), Type: "topic", Label: fmt.Sprintf("T%d", i)})
		edges = append(edges, graph.Edge{Source: "a", Target: fmt.Sprint(i), Type: "likes", Weight: 1})
	}

	p := BuildGraphSummaryPrompt(nodes, edges)
	assert.Contains(t, p, "Nodes (25):\n- T0 (topic)\n")
	assert.Contains(t, p, "- T19 (topic)\n... and 5 more\n")
	assert.NotContains(t, p, "T20 (topic)")
	assert.Contains(t, p, "Edges (25):\n- a --[likes]--> 0 (weight: 1)\n")
	assert.Contains(t, p, "- a --[likes]--> 19 (weight: 1)\n... and 5 more\n")
	assert.True(t, strings.HasSuffix(p, "3. Notable insights about the knowledge structure"))

	small := BuildGraphSummaryPrompt(nodes[:1], nil)
	assert.NotContains(t, small, "more")
	assert.Contains(t, small, "Edges (0):\n\nPlease provide:")
}
