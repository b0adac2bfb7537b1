// Package graph holds the in-memory knowledge graph built from analyzed
// conversations, plus the read-side HTTP API that exposes it.
//
// The Store is an explicit instance owned by its caller. It does no locking:
// a single writer is assumed, and concurrent readers must synchronize
// externally or work from an Export snapshot.
package graph

import (
	"regexp"
	"strings"
	"time"
)

// Node is the graph projection of an extracted entity.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Edge is the graph projection of a derived relationship.
type Edge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Weight     float64        `json:"weight"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Metadata summarizes the graph. Counts always match the current contents.
type Metadata struct {
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"last_updated"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
}

// Snapshot is the transfer format produced by Export and accepted by Import.
type Snapshot struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// Clock supplies mutation timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeID derives a node id from label text: lowercase, with every run
// of non-alphanumeric characters collapsed to a single underscore.
func NormalizeID(text string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(text), "_")
}

// EdgeID derives an edge id from its endpoints and type.
func EdgeID(source, edgeType, target string) string {
	return source + "_" + edgeType + "_" + target
}

// Store is the in-memory graph. Iteration order is insertion order.
type Store struct {
	clock Clock

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	// adjacency maps a node id to the ids of edges touching it. A self-edge
	// is listed once.
	adjacency map[string][]string

	meta Metadata
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewStore creates an empty graph.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{clock: SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	now := s.clock.Now()
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.edges = make(map[string]*Edge)
	s.edgeOrder = nil
	s.adjacency = make(map[string][]string)
	s.meta = Metadata{Created: now, LastUpdated: now}
}

// AddNode stamps and upserts a node by id. The stored copy is returned.
func (s *Store) AddNode(n Node) Node {
	n.Timestamp = s.clock.Now()
	s.putNode(n)
	s.touch(n.Timestamp)
	return copyNode(&n)
}

// AddEdge derives the edge id, stamps and upserts it. The stored copy is
// returned. Endpoints are not required to exist yet.
func (s *Store) AddEdge(e Edge) Edge {
	e.ID = EdgeID(e.Source, e.Type, e.Target)
	e.Timestamp = s.clock.Now()
	s.putEdge(e)
	s.touch(e.Timestamp)
	return copyEdge(&e)
}

func (s *Store) putNode(n Node) {
	if _, ok := s.nodes[n.ID]; !ok {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	n.Properties = cloneProps(n.Properties)
	s.nodes[n.ID] = &n
}

func (s *Store) putEdge(e Edge) {
	prev, ok := s.edges[e.ID]
	e.Properties = cloneProps(e.Properties)
	s.edges[e.ID] = &e
	switch {
	case !ok:
		s.edgeOrder = append(s.edgeOrder, e.ID)
		s.link(e)
	case prev.Source != e.Source || prev.Target != e.Target:
		// an id reused with new endpoints; rebuild so adjacency keeps edge order
		s.reindex()
	}
}

func (s *Store) link(e Edge) {
	s.adjacency[e.Source] = append(s.adjacency[e.Source], e.ID)
	if e.Target != e.Source {
		s.adjacency[e.Target] = append(s.adjacency[e.Target], e.ID)
	}
}

func (s *Store) reindex() {
	s.adjacency = make(map[string][]string, len(s.adjacency))
	for _, id := range s.edgeOrder {
		s.link(*s.edges[id])
	}
}

func (s *Store) touch(t time.Time) {
	s.meta.LastUpdated = t
	s.meta.NodeCount = len(s.nodes)
	s.meta.EdgeCount = len(s.edges)
}

// GetNode looks up a node by id.
func (s *Store) GetNode(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// GetEdge looks up an edge by id.
func (s *Store) GetEdge(id string) (Edge, bool) {
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	return copyEdge(e), true
}

// Nodes returns every node in insertion order.
func (s *Store) Nodes() []Node {
	return s.filterNodes(func(*Node) bool { return true })
}

// Edges returns every edge in insertion order.
func (s *Store) Edges() []Edge {
	return s.filterEdges(func(*Edge) bool { return true })
}

// NodesByType returns nodes of the given type.
func (s *Store) NodesByType(nodeType string) []Node {
	return s.filterNodes(func(n *Node) bool { return n.Type == nodeType })
}

// EdgesByType returns edges of the given type.
func (s *Store) EdgesByType(edgeType string) []Edge {
	return s.filterEdges(func(e *Edge) bool { return e.Type == edgeType })
}

func (s *Store) filterNodes(keep func(*Node) bool) []Node {
	var out []Node
	for _, id := range s.nodeOrder {
		if n := s.nodes[id]; keep(n) {
			out = append(out, copyNode(n))
		}
	}
	return out
}

func (s *Store) filterEdges(keep func(*Edge) bool) []Edge {
	var out []Edge
	for _, id := range s.edgeOrder {
		if e := s.edges[id]; keep(e) {
			out = append(out, copyEdge(e))
		}
	}
	return out
}

// EdgesForNode returns all edges with id as source or target.
func (s *Store) EdgesForNode(id string) []Edge {
	ids := s.adjacency[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(ids))
	for _, eid := range ids {
		out = append(out, copyEdge(s.edges[eid]))
	}
	return out
}

// NodeDegree counts the edges touching id.
func (s *Store) NodeDegree(id string) int {
	return len(s.adjacency[id])
}

// neighborIDs lists distinct neighbor ids one edge away in either direction,
// in adjacency order. Neighbors that are not stored nodes are skipped.
func (s *Store) neighborIDs(id string) []string {
	var out []string
	seen := map[string]bool{}
	for _, eid := range s.adjacency[id] {
		e := s.edges[eid]
		other := e.Target
		if other == id {
			other = e.Source
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		if _, ok := s.nodes[other]; ok {
			out = append(out, other)
		}
	}
	return out
}

// ConnectedNodes returns the distinct stored nodes adjacent to id.
func (s *Store) ConnectedNodes(id string) []Node {
	var out []Node
	for _, nid := range s.neighborIDs(id) {
		out = append(out, copyNode(s.nodes[nid]))
	}
	return out
}

// Metadata reports the current graph summary.
func (s *Store) Metadata() Metadata {
	return s.meta
}

// Export snapshots the whole graph.
func (s *Store) Export() Snapshot {
	return Snapshot{
		Nodes:    s.Nodes(),
		Edges:    s.Edges(),
		Metadata: s.meta,
	}
}

// Import replaces the current contents with the given nodes and edges.
// Stored timestamps and edge ids are kept as supplied.
func (s *Store) Import(nodes []Node, edges []Edge) {
	s.reset()
	for _, n := range nodes {
		s.putNode(n)
	}
	for _, e := range edges {
		if e.ID == "" {
			e.ID = EdgeID(e.Source, e.Type, e.Target)
		}
		s.putEdge(e)
	}
	s.touch(s.clock.Now())
}

// Clear empties the graph and resets metadata.
func (s *Store) Clear() {
	s.reset()
}

func copyNode(n *Node) Node {
	c := *n
	c.Properties = cloneProps(n.Properties)
	return c
}

func copyEdge(e *Edge) Edge {
	c := *e
	c.Properties = cloneProps(e.Properties)
	return c
}

func cloneProps(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
