// Package analyzer chains extraction, deduplication, relationship
// derivation and insight synthesis for one conversation, then merges the
// projected nodes and edges into a caller-owned graph store.
package analyzer

import (
	"time"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/extract"
	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/logger"
	"github.com/hurttlocker/convograph/internal/metrics"
)

// SpeakerRole marks the node created for the conversation's speaker when
// WithSpeakerNode is set.
const SpeakerRole = "speaker"

// Delta is the part of the graph touched by one analysis.
type Delta struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Result is everything produced for one conversation.
type Result struct {
	ConversationID string                 `json:"conversation_id"`
	Entities       []extract.Entity       `json:"entities"`
	Relationships  []extract.Relationship `json:"relationships"`
	Insights       []string               `json:"insights"`
	Graph          Delta                  `json:"graph"`
}

// Analyzer runs the pipeline against one graph store.
type Analyzer struct {
	store     *graph.Store
	extractor *extract.Extractor
	deriver   *extract.Deriver
	log       *zap.Logger
	metrics   *metrics.Collector

	speakerNode bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithDeriver replaces the default relationship deriver.
func WithDeriver(d *extract.Deriver) Option {
	return func(a *Analyzer) { a.deriver = d }
}

// WithLogger sets the logger. The package logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// WithMetrics records analysis counters on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Analyzer) { a.metrics = c }
}

// WithSpeakerNode adds a person node for the speaker so edges leaving the
// speaker resolve. Off by default: speaker edges dangle and traversal skips
// the missing endpoint, which keeps clusters built from co-mentions apart.
func WithSpeakerNode() Option {
	return func(a *Analyzer) { a.speakerNode = true }
}

// New creates an analyzer writing into store.
func New(store *graph.Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		store:     store,
		extractor: extract.NewExtractor(),
		deriver:   extract.NewDeriver(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get()
	}
	return a
}

// Store returns the graph the analyzer writes into.
func (a *Analyzer) Store() *graph.Store {
	return a.store
}

// AnalyzeConversation extracts, derives and synthesizes for conv and merges
// the projection into the store. A nil or empty conversation yields an empty
// result and leaves the store untouched.
func (a *Analyzer) AnalyzeConversation(conv *conversation.Conversation) Result {
	if conv == nil {
		return Result{}
	}
	start := time.Now()
	res := Result{ConversationID: conv.ID}

	res.Entities = extract.DedupeEntities(a.extractor.Extract(conv))
	res.Relationships = extract.DedupeRelationships(a.deriver.Derive(conv, res.Entities))
	res.Insights = extract.Synthesize(res.Entities, res.Relationships)

	if len(res.Entities) > 0 || len(res.Relationships) > 0 {
		res.Graph = a.merge(conv.Speaker(), res.Entities, res.Relationships)
	}

	a.log.Debug("analyzed conversation",
		zap.String("conversation_id", conv.ID),
		zap.Int("messages", len(conv.Messages)),
		zap.Int("entities", len(res.Entities)),
		zap.Int("relationships", len(res.Relationships)),
		zap.Int("graph_nodes", a.store.Metadata().NodeCount),
		zap.Int("graph_edges", a.store.Metadata().EdgeCount),
		zap.Duration("took", time.Since(start)),
	)
	a.record(res, time.Since(start))
	return res
}

// AnalyzeAll analyzes each conversation in order.
func (a *Analyzer) AnalyzeAll(convs []conversation.Conversation) []Result {
	out := make([]Result, 0, len(convs))
	for i := range convs {
		out = append(out, a.AnalyzeConversation(&convs[i]))
	}
	return out
}

func (a *Analyzer) merge(speaker string, entities []extract.Entity, rels []extract.Relationship) Delta {
	var d Delta
	for _, n := range ProjectEntities(entities) {
		d.Nodes = append(d.Nodes, a.store.AddNode(n))
	}
	if a.speakerNode && len(rels) > 0 {
		speakerID := graph.NormalizeID(speaker)
		if _, ok := a.store.GetNode(speakerID); !ok {
			d.Nodes = append(d.Nodes, a.store.AddNode(graph.Node{
				ID:         speakerID,
				Type:       string(extract.EntityPerson),
				Label:      speaker,
				Properties: map[string]any{"role": SpeakerRole},
			}))
		}
	}
	for _, e := range ProjectRelationships(rels) {
		d.Edges = append(d.Edges, a.store.AddEdge(e))
	}
	return d
}

func (a *Analyzer) record(res Result, took time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.ConversationsAnalyzed.Inc()
	a.metrics.AnalyzeDuration.Observe(took.Seconds())
	for _, e := range res.Entities {
		a.metrics.EntitiesExtracted.WithLabelValues(string(e.Type)).Inc()
	}
	for _, r := range res.Relationships {
		a.metrics.RelationshipsDerived.WithLabelValues(string(r.Type)).Inc()
	}
	meta := a.store.Metadata()
	a.metrics.SetGraphSize(meta.NodeCount, meta.EdgeCount)
}

// ProjectEntities maps entities to graph nodes keyed by normalized text.
func ProjectEntities(entities []extract.Entity) []graph.Node {
	nodes := make([]graph.Node, 0, len(entities))
	for _, e := range entities {
		nodes = append(nodes, graph.Node{
			ID:    graph.NormalizeID(e.Text),
			Type:  string(e.Type),
			Label: e.Text,
			Properties: map[string]any{
				"confidence": e.Confidence,
				"context":    e.Context,
			},
		})
	}
	return nodes
}

// ProjectRelationships maps relationships to graph edges between normalized
// node ids. Edge ids are assigned by the store.
func ProjectRelationships(rels []extract.Relationship) []graph.Edge {
	edges := make([]graph.Edge, 0, len(rels))
	for _, r := range rels {
		edges = append(edges, graph.Edge{
			Source: graph.NormalizeID(r.From),
			Target: graph.NormalizeID(r.To),
			Type:   string(r.Type),
			Weight: r.Strength,
		})
	}
	return edges
}
