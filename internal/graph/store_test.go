package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestGraph() (*Store, *stepClock) {
	clock := &stepClock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), step: time.Second}
	return NewStore(WithClock(clock)), clock
}

func linkAll(s *Store, pairs ...[2]string) {
	for _, p := range pairs {
		for _, id := range p {
			if _, ok := s.GetNode(id); !ok {
				s.AddNode(Node{ID: id, Type: "topic", Label: id})
			}
		}
		s.AddEdge(Edge{Source: p[0], Target: p[1], Type: "related_to", Weight: 0.6})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"TypeScript", "typescript"},
		{"Next.js", "next_js"},
		{"working with  legacy PHP code", "working_with_legacy_php_code"},
		{"C++ & Go!", "c_go_"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeID(tt.in), tt.in)
	}
}

func TestEdgeID(t *testing.T) {
	assert.Equal(t, "alex_likes_go", EdgeID("alex", "likes", "go"))
}

func TestAddNode_StampsAndUpserts(t *testing.T) {
	s, _ := newTestGraph()

	first := s.AddNode(Node{ID: "go", Type: "topic", Label: "Go", Properties: map[string]any{"confidence": 1.0}})
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 1, 0, time.UTC), first.Timestamp)

	second := s.AddNode(Node{ID: "go", Type: "topic", Label: "Golang"})
	assert.True(t, second.Timestamp.After(first.Timestamp))

	got, ok := s.GetNode("go")
	require.True(t, ok)
	assert.Equal(t, "Golang", got.Label, "last write wins")
	assert.Nil(t, got.Properties)
	assert.Equal(t, 1, s.Metadata().NodeCount)
	assert.Equal(t, second.Timestamp, s.Metadata().LastUpdated)
}

func TestReAddIsIdempotentForCounts(t *testing.T) {
	s, _ := newTestGraph()
	n := Node{ID: "maria", Type: "person", Label: "Maria"}
	e := Edge{Source: "alex", Target: "maria", Type: "knows", Weight: 0.95}

	s.AddNode(n)
	s.AddEdge(e)
	before := s.Metadata()

	s.AddNode(n)
	s.AddEdge(e)
	after := s.Metadata()

	assert.Equal(t, before.NodeCount, after.NodeCount)
	assert.Equal(t, before.EdgeCount, after.EdgeCount)
	assert.Equal(t, 1, s.NodeDegree("maria"))
}

func TestAddEdge_DerivesIDAndAllowsDanglingEndpoints(t *testing.T) {
	s, _ := newTestGraph()
	e := s.AddEdge(Edge{ID: "ignored", Source: "alex", Target: "go", Type: "likes", Weight: 0.9})
	assert.Equal(t, "alex_likes_go", e.ID)

	got, ok := s.GetEdge("alex_likes_go")
	require.True(t, ok)
	assert.Equal(t, 0.9, got.Weight)

	assert.Empty(t, s.ConnectedNodes("alex"), "missing neighbors are skipped")
	assert.Len(t, s.EdgesForNode("go"), 1)
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestGraph()
	_, ok := s.GetNode("nope")
	assert.False(t, ok)
	_, ok = s.GetEdge("nope")
	assert.False(t, ok)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s, _ := newTestGraph()
	props := map[string]any{"confidence": 0.9}
	s.AddNode(Node{ID: "maria", Type: "person", Label: "Maria", Properties: props})
	props["confidence"] = 0.1

	got, _ := s.GetNode("maria")
	assert.Equal(t, 0.9, got.Properties["confidence"])

	got.Properties["confidence"] = 0.2
	again, _ := s.GetNode("maria")
	assert.Equal(t, 0.9, again.Properties["confidence"])
}

func TestByTypeFiltersInInsertionOrder(t *testing.T) {
	s, _ := newTestGraph()
	s.AddNode(Node{ID: "go", Type: "topic", Label: "Go"})
	s.AddNode(Node{ID: "maria", Type: "person", Label: "Maria"})
	s.AddNode(Node{ID: "python", Type: "topic", Label: "Python"})
	s.AddEdge(Edge{Source: "alex", Target: "go", Type: "likes", Weight: 0.9})
	s.AddEdge(Edge{Source: "alex", Target: "maria", Type: "knows", Weight: 0.95})

	var ids []string
	for _, n := range s.NodesByType("topic") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"go", "python"}, ids)

	knows := s.EdgesByType("knows")
	require.Len(t, knows, 1)
	assert.Equal(t, "maria", knows[0].Target)
	assert.Empty(t, s.EdgesByType("dislikes"))
}

func TestConnectedNodesAndDegree(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"a", "b"}, [2]string{"c", "a"})
	s.AddEdge(Edge{Source: "a", Target: "b", Type: "mentions", Weight: 0.7})
	s.AddEdge(Edge{Source: "a", Target: "a", Type: "mentions", Weight: 0.7})

	var ids []string
	for _, n := range s.ConnectedNodes("a") {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Equal(t, 4, s.NodeDegree("a"))
	assert.Len(t, s.EdgesForNode("a"), 4)
	assert.Equal(t, 0, s.NodeDegree("missing"))
}

func TestSelfEdgeCountsOnce(t *testing.T) {
	s, _ := newTestGraph()
	s.AddNode(Node{ID: "a", Type: "topic", Label: "A"})
	s.AddEdge(Edge{Source: "a", Target: "a", Type: "related_to", Weight: 0.5})

	assert.Equal(t, 1, s.NodeDegree("a"))
	assert.Len(t, s.EdgesForNode("a"), 1)
	require.Len(t, s.ConnectedNodes("a"), 1)
	assert.Equal(t, "a", s.ConnectedNodes("a")[0].ID)
}

func TestImport_ReusedEdgeIDMovesAdjacency(t *testing.T) {
	s, _ := newTestGraph()
	for _, id := range []string{"x", "y", "z"} {
		s.AddNode(Node{ID: id, Type: "topic", Label: id})
	}
	snap := s.Export()
	s.Import(snap.Nodes, []Edge{
		{ID: "e1", Source: "x", Target: "y", Type: "related_to", Weight: 0.5},
		{ID: "e1", Source: "y", Target: "z", Type: "related_to", Weight: 0.5},
	})

	assert.Equal(t, 1, s.Metadata().EdgeCount)
	assert.Equal(t, 0, s.NodeDegree("x"))
	assert.Empty(t, s.EdgesForNode("x"))
	assert.Empty(t, s.ConnectedNodes("x"))
	assert.Equal(t, 1, s.NodeDegree("y"))
	assert.Equal(t, 1, s.NodeDegree("z"))
	assert.Nil(t, s.FindPath("x", "y", 5))
	assert.Equal(t, []string{"y", "z"}, s.FindPath("y", "z", 5))
}

func TestExportImportReplaces(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"a", "b"})
	snap := s.Export()
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, 2, snap.Metadata.NodeCount)

	other, _ := newTestGraph()
	linkAll(other, [2]string{"x", "y"}, [2]string{"y", "z"})
	other.Import(snap.Nodes, snap.Edges)

	assert.Equal(t, 2, other.Metadata().NodeCount)
	assert.Equal(t, 1, other.Metadata().EdgeCount)
	_, ok := other.GetNode("x")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, other.FindPath("a", "b", 2))
	assert.Equal(t, snap.Edges[0].Timestamp, other.Edges()[0].Timestamp)
}

func TestClear(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"a", "b"})
	s.Clear()

	meta := s.Metadata()
	assert.Zero(t, meta.NodeCount)
	assert.Zero(t, meta.EdgeCount)
	assert.Empty(t, s.Nodes())
	assert.Empty(t, s.Edges())
	assert.Zero(t, s.NodeDegree("a"))
}

func TestEmptyGraphQueries(t *testing.T) {
	s, _ := newTestGraph()
	assert.Empty(t, s.NodesByType("topic"))
	assert.Empty(t, s.EdgesForNode("a"))
	assert.Empty(t, s.ConnectedNodes("a"))
	assert.Nil(t, s.FindPath("a", "b", 5))
	assert.Empty(t, s.FindClusters())
	assert.Empty(t, s.StrongestConnections(0))
	assert.Empty(t, s.MostConnectedNodes(0))
}
