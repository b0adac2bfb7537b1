package ingest

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/logger"
)

// DefaultConcurrency bounds parallel file parsing.
const DefaultConcurrency = 4

// FileTooLargeError is returned for files over DefaultMaxFileSize.
type FileTooLargeError struct {
	Path string
	Size int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (%d bytes, max %d)", e.Path, e.Size, DefaultMaxFileSize)
}

// Engine turns transcript files into validated conversations.
type Engine struct {
	parsers     []Parser
	segmenter   *Segmenter
	concurrency int
	log         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSegmenter overrides segmentation settings.
func WithSegmenter(s *Segmenter) Option {
	return func(e *Engine) { e.segmenter = s }
}

// WithConcurrency sets how many files are parsed at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine with all built-in parsers registered.
// Plain text goes last since it also claims extensionless files.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		parsers: []Parser{
			&JSONParser{},
			&MarkdownParser{},
			&HTMLParser{},
			&PlainTextParser{},
		},
		segmenter:   &Segmenter{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get()
	}
	return e
}

// ParserFor returns the parser handling path, or nil.
func (e *Engine) ParserFor(path string) Parser {
	for _, p := range e.parsers {
		if p.CanHandle(path) {
			return p
		}
	}
	return nil
}

// ParseFile reads one file and returns its conversations.
func (e *Engine) ParseFile(ctx context.Context, path string) ([]conversation.Conversation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	p := e.ParserFor(path)
	if p == nil {
		return nil, fmt.Errorf("unsupported file format: %s", path)
	}

	doc, err := p.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	convs, err := e.fromDocument(doc)
	if err != nil {
		return nil, err
	}
	e.log.Debug("parsed transcript",
		zap.String("source", doc.Source),
		zap.Int("lines", len(doc.Lines)),
		zap.Int("conversations", len(convs)),
	)
	return convs, nil
}

// ParseFiles parses files concurrently. Results keep the order of paths;
// the first error cancels the rest.
func (e *Engine) ParseFiles(ctx context.Context, paths []string) ([]conversation.Conversation, error) {
	results := make([][]conversation.Conversation, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			convs, err := e.ParseFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = convs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []conversation.Conversation
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// ParseJSON decodes a conversation, an array of conversations, or an array
// of messages, then validates each.
func (e *Engine) ParseJSON(data []byte) ([]conversation.Conversation, error) {
	convs, err := decodeConversations(data)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return e.fromDocument(&Document{Source: "<json>", Conversations: convs})
}

// ParseText segments an in-memory transcript.
func (e *Engine) ParseText(text string) ([]conversation.Conversation, error) {
	return e.fromDocument(&Document{Source: "<text>", Lines: splitLines(text)})
}

func (e *Engine) fromDocument(doc *Document) ([]conversation.Conversation, error) {
	convs := doc.Conversations
	if len(doc.Lines) > 0 {
		convs = append(convs, e.segmenter.Segment(doc.Lines)...)
	}

	for i := range convs {
		c := &convs[i]
		if c.ID == "" {
			c.ID = e.segmenter.newID()
		}
		if c.Metadata.Created.IsZero() && len(c.Messages) > 0 {
			c.Metadata.Created = c.Messages[0].Timestamp
		}
		if err := conversation.Validate(c); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Source, err)
		}
	}
	return convs, nil
}
