package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *tools) registerStatsResource(s *server.MCPServer) {
	resource := mcp.NewResource(
		"convograph://stats",
		"Store Statistics",
		mcp.WithResourceDescription("Memory and saved-graph counts, database size, and the live graph's metadata."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		stats, err := t.store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting stats: %w", err)
		}
		return jsonResource(req.Params.URI, map[string]any{
			"store": stats,
			"graph": t.graph.Metadata(),
		})
	})
}

func (t *tools) registerGraphResource(s *server.MCPServer) {
	resource := mcp.NewResource(
		"convograph://graph",
		"Knowledge Graph",
		mcp.WithResourceDescription("The live knowledge graph: nodes, edges and metadata."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		return jsonResource(req.Params.URI, t.graph.Export())
	})
}
