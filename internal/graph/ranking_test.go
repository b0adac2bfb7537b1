package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongestConnections(t *testing.T) {
	s, _ := newTestGraph()
	s.AddEdge(Edge{Source: "a", Target: "b", Type: "likes", Weight: 0.9})
	s.AddEdge(Edge{Source: "a", Target: "c", Type: "mentions", Weight: 0.5})
	s.AddEdge(Edge{Source: "a", Target: "d", Type: "knows", Weight: 0.95})

	got := s.StrongestConnections(2)
	require.Len(t, got, 2)
	assert.Equal(t, 0.95, got[0].Weight)
	assert.Equal(t, 0.9, got[1].Weight)

	assert.Len(t, s.StrongestConnections(0), 3)
}

func TestStrongestConnections_TiesKeepInsertionOrder(t *testing.T) {
	s, _ := newTestGraph()
	s.AddEdge(Edge{Source: "x", Target: "y", Type: "related_to", Weight: 0.6})
	s.AddEdge(Edge{Source: "y", Target: "z", Type: "related_to", Weight: 0.6})

	got := s.StrongestConnections(10)
	require.Len(t, got, 2)
	assert.Equal(t, "x_related_to_y", got[0].ID)
	assert.Equal(t, "y_related_to_z", got[1].ID)
}

func TestMostConnectedNodes(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"hub", "a"}, [2]string{"hub", "b"}, [2]string{"a", "b"}, [2]string{"hub", "c"})
	s.AddNode(Node{ID: "alone", Type: "topic", Label: "alone"})

	got := s.MostConnectedNodes(3)
	require.Len(t, got, 3)
	assert.Equal(t, "hub", got[0].Node.ID)
	assert.Equal(t, 3, got[0].Degree)
	assert.Equal(t, "a", got[1].Node.ID)
	assert.Equal(t, 2, got[1].Degree)
	assert.Equal(t, "b", got[2].Node.ID)

	all := s.MostConnectedNodes(0)
	require.Len(t, all, 5)
	assert.Equal(t, "alone", all[4].Node.ID)
	assert.Zero(t, all[4].Degree)
}
