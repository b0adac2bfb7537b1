// Package ingest turns transcript files into conversations for analysis.
//
// Each supported format (plain text, Markdown, HTML, JSON) has its own
// parser implementing the Parser interface. The engine picks a parser by
// file extension. Text-like formats yield speaker lines that the Segmenter
// groups into conversations; JSON files may carry conversations directly.
package ingest

import (
	"context"

	"github.com/hurttlocker/convograph/internal/conversation"
)

// Document is the parsed form of one source file.
type Document struct {
	Source string // absolute path, or a label for in-memory input
	Lines  []string
	// Conversations are already structured (JSON input) and bypass
	// segmentation.
	Conversations []conversation.Conversation
}

// Parser handles a specific file format.
type Parser interface {
	// CanHandle returns true if this parser supports the given file path.
	CanHandle(path string) bool

	// Parse reads the file into a Document.
	Parse(ctx context.Context, path string) (*Document, error)
}

// DefaultMaxFileSize is 10MB.
const DefaultMaxFileSize = 10 * 1024 * 1024
