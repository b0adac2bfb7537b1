package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hurttlocker/convograph/internal/conversation"
)

// JSONParser handles .json files holding a conversation, an array of
// conversations, or a bare array of messages.
type JSONParser struct{}

func (p *JSONParser) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

func (p *JSONParser) Parse(ctx context.Context, path string) (*Document, error) {
	absPath, data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	convs, err := decodeConversations(data)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON %s: %w", absPath, err)
	}
	return &Document{Source: absPath, Conversations: convs}, nil
}

func decodeConversations(data []byte) ([]conversation.Conversation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if data[0] == '{' {
		var c conversation.Conversation
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return []conversation.Conversation{c}, nil
	}

	if data[0] != '[' {
		return nil, fmt.Errorf("expected object or array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	// Decide by the first element: conversations carry "messages",
	// messages carry "role".
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["messages"]; ok {
		var convs []conversation.Conversation
		if err := json.Unmarshal(data, &convs); err != nil {
			return nil, err
		}
		return convs, nil
	}

	var msgs []conversation.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return []conversation.Conversation{{Messages: msgs}}, nil
}
