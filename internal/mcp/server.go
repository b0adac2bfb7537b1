// Package mcp provides a Model Context Protocol server for convograph.
//
// It exposes the memory store (store, retrieve, forget) and the knowledge
// graph (analyze, inspect, traverse, rank, persist) as MCP tools, plus
// store statistics and the current graph as MCP resources. Served over
// stdio for desktop clients.
package mcp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/convograph/internal/analyzer"
	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/ingest"
	"github.com/hurttlocker/convograph/internal/llm"
	"github.com/hurttlocker/convograph/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store    store.Store
	Analyzer *analyzer.Analyzer // required; owns the graph store
	LLM      *llm.Client        // optional; query_insights degrades without it
	Version  string             // version string for MCP server info
	// Lock guards the graph. Share it with the HTTP API when both run in
	// one process. Defaults to the package mutex.
	Lock *sync.RWMutex
}

// dbMu serializes MCP tool calls. mcp-go dispatches handlers concurrently
// and neither the graph store nor a single-writer SQLite file tolerate
// interleaved writes.
var dbMu sync.RWMutex

type tools struct {
	store    store.Store
	analyzer *analyzer.Analyzer
	graph    *graph.Store
	llm      *llm.Client
	ingest   *ingest.Engine
	samples  *conversation.SampleGenerator
	mu       *sync.RWMutex
}

// NewServer creates a configured MCP server with all tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"convograph",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	t := &tools{
		store:    cfg.Store,
		analyzer: cfg.Analyzer,
		graph:    cfg.Analyzer.Store(),
		llm:      cfg.LLM,
		ingest:   ingest.NewEngine(),
		samples:  conversation.NewSampleGenerator(),
		mu:       cfg.Lock,
	}
	if t.mu == nil {
		t.mu = &dbMu
	}
	if t.llm == nil {
		t.llm = llm.NewWithProvider(nil)
	}

	// Memory tools
	t.registerStoreMemory(s)
	t.registerRetrieveMemory(s)
	t.registerForgetMemory(s)

	// Graph tools
	t.registerGenerateSampleData(s)
	t.registerAnalyzeConversation(s)
	t.registerGetGraph(s)
	t.registerFindPath(s)
	t.registerGraphClusters(s)
	t.registerGraphRankings(s)
	t.registerQueryInsights(s)
	t.registerSaveGraph(s)
	t.registerLoadGraph(s)

	// Resources
	t.registerStatsResource(s)
	t.registerGraphResource(s)

	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}

// optionalInt reads a numeric argument clamped to [1, hi], or def when absent.
func optionalInt(req mcp.CallToolRequest, key string, def, hi int) int {
	v, err := req.RequireFloat(key)
	if err != nil {
		return def
	}
	n := int(v)
	if n < 1 {
		return 1
	}
	if n > hi {
		return hi
	}
	return n
}
