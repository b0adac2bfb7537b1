package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *tools) registerStoreMemory(s *server.MCPServer) {
	tool := mcp.NewTool("store_memory",
		mcp.WithDescription("Store a new memory or update an existing one."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("The unique key for the memory"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("The value to store (any JSON value is accepted)"),
		),
		mcp.WithString("category",
			mcp.Description("Category of the memory (e.g., 'preference', 'fact'). Defaults to 'general'."),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Confidence score (0.0 to 1.0, default: 1.0)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		key, err := req.RequireString("key")
		if err != nil || key == "" {
			return mcp.NewToolResultError("key is required"), nil
		}
		value, ok := req.GetArguments()["value"]
		if !ok || value == nil {
			return mcp.NewToolResultError("value is required"), nil
		}
		category := req.GetString("category", "")
		confidence := req.GetFloat("confidence", 0)
		if confidence < 0 || confidence > 1 {
			return mcp.NewToolResultError("confidence must be between 0.0 and 1.0"), nil
		}

		m, err := t.store.PutMemory(ctx, key, value, category, confidence)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("store error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(m, "", "  ")
		return mcp.NewToolResultText("Memory stored: " + string(data)), nil
	})
}

func (t *tools) registerRetrieveMemory(s *server.MCPServer) {
	tool := mcp.NewTool("retrieve_memory",
		mcp.WithDescription("Retrieve memories based on a search query. Matches key, value and category case-insensitively."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}
		memories, err := t.store.SearchMemories(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}
		if memories == nil {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(memories), nil
	})
}

func (t *tools) registerForgetMemory(s *server.MCPServer) {
	tool := mcp.NewTool("forget_memory",
		mcp.WithDescription("Delete a memory by its key."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("The key of the memory to delete"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError("key is required"), nil
		}
		deleted, err := t.store.DeleteMemory(ctx, key)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete error: %v", err)), nil
		}
		if !deleted {
			return mcp.NewToolResultText(fmt.Sprintf("Memory '%s' not found.", key)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Memory '%s' deleted.", key)), nil
	})
}
