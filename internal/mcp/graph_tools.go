package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/convograph/internal/analyzer"
	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/llm"
)

const (
	defaultRankingLimit = graph.DefaultRankingLimit
	maxRankingLimit     = 100
	maxPathDepth        = 10
	defaultInsightLimit = 5
	maxInsightLimit     = 25
)

type sampleDataResult struct {
	Conversations []conversation.Conversation `json:"conversations"`
	Results       []analyzer.Result           `json:"results,omitempty"`
	Graph         graph.Metadata              `json:"graph"`
}

type insightsResult struct {
	Question string     `json:"question"`
	Insights []string   `json:"insights"`
	Answer   llm.Answer `json:"answer"`
	Provider string     `json:"provider"`
}

func (t *tools) registerGenerateSampleData(s *server.MCPServer) {
	tool := mcp.NewTool("generate_sample_data",
		mcp.WithDescription("Generate built-in sample conversations and, by default, analyze them into the knowledge graph."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("count",
			mcp.Description(fmt.Sprintf("Number of conversations (default: 3, max: %d)", conversation.SampleCount())),
		),
		mcp.WithBoolean("analyze",
			mcp.Description("Analyze the generated conversations into the graph (default: true)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		count := optionalInt(req, "count", 3, conversation.SampleCount())
		convs := t.samples.Generate(count)

		out := sampleDataResult{Conversations: convs}
		if req.GetBool("analyze", true) {
			out.Results = t.analyzer.AnalyzeAll(convs)
		}
		out.Graph = t.graph.Metadata()
		return jsonResult(out), nil
	})
}

func (t *tools) registerAnalyzeConversation(s *server.MCPServer) {
	tool := mcp.NewTool("analyze_conversation",
		mcp.WithDescription("Analyze a conversation into entities, relationships and insights, merging them into the knowledge graph. Pass either a JSON conversation or a plain-text transcript with 'Name: message' lines."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("conversation",
			mcp.Description(`JSON conversation ({"id", "messages": [{"role", "content"}], "metadata"}), an array of them, or an array of messages`),
		),
		mcp.WithString("transcript",
			mcp.Description("Plain-text transcript, one 'Speaker: message' per line"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		raw := strings.TrimSpace(req.GetString("conversation", ""))
		transcript := strings.TrimSpace(req.GetString("transcript", ""))

		var (
			convs []conversation.Conversation
			err   error
		)
		switch {
		case raw != "" && transcript != "":
			return mcp.NewToolResultError("provide conversation or transcript, not both"), nil
		case raw != "":
			convs, err = t.ingest.ParseJSON([]byte(raw))
		case transcript != "":
			convs, err = t.ingest.ParseText(transcript)
		default:
			return mcp.NewToolResultError("conversation or transcript is required"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(convs) == 0 {
			return mcp.NewToolResultError("no messages found in input"), nil
		}

		return jsonResult(t.analyzer.AnalyzeAll(convs)), nil
	})
}

func (t *tools) registerGetGraph(s *server.MCPServer) {
	tool := mcp.NewTool("get_graph",
		mcp.WithDescription("Return the knowledge graph: the full snapshot, nodes of one type, or a single node with its neighbors."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("node",
			mcp.Description("Node id or label; returns that node, its edges and neighbors"),
		),
		mcp.WithString("type",
			mcp.Description("Only nodes of this type (person, technology, topic, preference, ...)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		if ref := req.GetString("node", ""); ref != "" {
			id := graph.NormalizeID(ref)
			n, ok := t.graph.GetNode(id)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("node not found: %s", id)), nil
			}
			return jsonResult(graph.NeighborsResponse{
				Node:      n,
				Degree:    t.graph.NodeDegree(id),
				Neighbors: nonNil(t.graph.ConnectedNodes(id)),
				Edges:     nonNil(t.graph.EdgesForNode(id)),
			}), nil
		}
		if typ := req.GetString("type", ""); typ != "" {
			return jsonResult(nonNil(t.graph.NodesByType(typ))), nil
		}
		return jsonResult(t.graph.Export()), nil
	})
}

func (t *tools) registerFindPath(s *server.MCPServer) {
	tool := mcp.NewTool("find_path",
		mcp.WithDescription("Find the shortest path between two nodes, following edges in either direction."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Start node id or label"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("End node id or label"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description(fmt.Sprintf("Maximum path length in nodes (default: %d, max: %d)", graph.DefaultMaxPathDepth, maxPathDepth)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		from, err := req.RequireString("from")
		if err != nil {
			return mcp.NewToolResultError("from is required"), nil
		}
		to, err := req.RequireString("to")
		if err != nil {
			return mcp.NewToolResultError("to is required"), nil
		}
		depth := optionalInt(req, "max_depth", graph.DefaultMaxPathDepth, maxPathDepth)

		resp := graph.PathResponse{
			From:  graph.NormalizeID(from),
			To:    graph.NormalizeID(to),
			Depth: depth,
		}
		resp.Path = nonNil(t.graph.FindPath(resp.From, resp.To, depth))
		resp.Found = len(resp.Path) > 0
		return jsonResult(resp), nil
	})
}

func (t *tools) registerGraphClusters(s *server.MCPServer) {
	tool := mcp.NewTool("graph_clusters",
		mcp.WithDescription("List connected components of the graph with more than one node."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		clusters := nonNil(t.graph.FindClusters())
		return jsonResult(graph.ClustersResponse{Clusters: clusters, Count: len(clusters)}), nil
	})
}

func (t *tools) registerGraphRankings(s *server.MCPServer) {
	tool := mcp.NewTool("graph_rankings",
		mcp.WithDescription("Rank the strongest edges by weight or the most connected nodes by degree."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("kind",
			mcp.Description("edges or nodes (default: nodes)"),
			mcp.Enum("edges", "nodes"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum results (default: %d, max: %d)", defaultRankingLimit, maxRankingLimit)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		limit := optionalInt(req, "limit", defaultRankingLimit, maxRankingLimit)
		switch kind := req.GetString("kind", "nodes"); kind {
		case "edges":
			return jsonResult(nonNil(t.graph.StrongestConnections(limit))), nil
		case "nodes":
			return jsonResult(nonNil(t.graph.MostConnectedNodes(limit))), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid kind %q (expected edges or nodes)", kind)), nil
		}
	})
}

func (t *tools) registerQueryInsights(s *server.MCPServer) {
	tool := mcp.NewTool("query_insights",
		mcp.WithDescription("Answer a question using insights drawn from the knowledge graph and stored memories. Uses the configured LLM when available; otherwise returns the insights alone."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural-language question"),
		),
		mcp.WithString("context",
			mcp.Description("Additional free-form context for the answer"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Rankings per category fed to the model (default: %d, max: %d)", defaultInsightLimit, maxInsightLimit)),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		limit := optionalInt(req, "limit", defaultInsightLimit, maxInsightLimit)

		insights, err := t.gatherInsights(ctx, question, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		// the graph lock is not held during the model call
		answer, err := t.llm.Query(ctx, llm.Question{
			Question: question,
			Context:  req.GetString("context", ""),
			Insights: insights,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("llm error: %v", err)), nil
		}
		return jsonResult(insightsResult{
			Question: question,
			Insights: insights,
			Answer:   answer,
			Provider: t.llm.Name(),
		}), nil
	})
}

// gatherInsights snapshots graph and memory insights under the read lock.
func (t *tools) gatherInsights(ctx context.Context, question string, limit int) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	memories, err := t.store.SearchMemories(ctx, question)
	if err != nil {
		return nil, err
	}
	insights := analyzer.GraphInsights(t.graph, question, limit)
	for i, m := range memories {
		if i == limit {
			break
		}
		insights = append(insights, m.Insight())
	}
	return insights, nil
}

func (t *tools) registerSaveGraph(s *server.MCPServer) {
	tool := mcp.NewTool("save_graph",
		mcp.WithDescription("Persist the current knowledge graph to the database, replacing any saved graph."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		snap := t.graph.Export()
		if err := t.store.SaveGraph(ctx, snap); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save error: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved graph: %d nodes, %d edges.", len(snap.Nodes), len(snap.Edges))), nil
	})
}

func (t *tools) registerLoadGraph(s *server.MCPServer) {
	tool := mcp.NewTool("load_graph",
		mcp.WithDescription("Replace the in-memory knowledge graph with the one saved in the database."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		snap, err := t.store.LoadGraph(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load error: %v", err)), nil
		}
		if len(snap.Nodes) == 0 && len(snap.Edges) == 0 {
			return mcp.NewToolResultText("No saved graph."), nil
		}
		t.graph.Import(snap.Nodes, snap.Edges)
		return mcp.NewToolResultText(fmt.Sprintf("Loaded graph: %d nodes, %d edges.", len(snap.Nodes), len(snap.Edges))), nil
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
