package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPath_DepthBoundIsInclusive(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "d"})

	assert.Equal(t, []string{"a", "b", "c", "d"}, s.FindPath("a", "d", 4))
	assert.Nil(t, s.FindPath("a", "d", 3))
}

func TestFindPath_UndirectedAndShortest(t *testing.T) {
	s, _ := newTestGraph()
	// d -> c -> b -> a plus a shortcut a <- d
	linkAll(s, [2]string{"b", "a"}, [2]string{"c", "b"}, [2]string{"d", "c"}, [2]string{"d", "a"})

	assert.Equal(t, []string{"a", "d"}, s.FindPath("a", "d", 5))
	assert.Equal(t, []string{"c", "b", "a"}, s.FindPath("c", "a", 0))
}

func TestFindPath_DefaultDepth(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"n1", "n2"}, [2]string{"n2", "n3"}, [2]string{"n3", "n4"},
		[2]string{"n4", "n5"}, [2]string{"n5", "n6"})

	assert.Len(t, s.FindPath("n1", "n5", 0), DefaultMaxPathDepth)
	assert.Nil(t, s.FindPath("n1", "n6", 0))
}

func TestFindPath_EdgeCases(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s, [2]string{"a", "b"})
	s.AddNode(Node{ID: "island", Type: "topic", Label: "island"})

	assert.Equal(t, []string{"a"}, s.FindPath("a", "a", 1))
	assert.Nil(t, s.FindPath("a", "island", 5))
	assert.Nil(t, s.FindPath("a", "ghost", 5))
	assert.Nil(t, s.FindPath("ghost", "a", 5))
}

func TestFindClusters_TwoTrianglesAndIsolatedNode(t *testing.T) {
	s, _ := newTestGraph()
	linkAll(s,
		[2]string{"a1", "a2"}, [2]string{"a2", "a3"}, [2]string{"a3", "a1"},
		[2]string{"b1", "b2"}, [2]string{"b2", "b3"}, [2]string{"b3", "b1"},
	)
	s.AddNode(Node{ID: "lonely", Type: "topic", Label: "lonely"})

	clusters := s.FindClusters()
	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, clusters[0])
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, clusters[1])
	for _, c := range clusters {
		assert.NotContains(t, c, "lonely")
	}
}

func TestFindClusters_DanglingEdgeDoesNotJoin(t *testing.T) {
	s, _ := newTestGraph()
	s.AddNode(Node{ID: "a", Type: "topic", Label: "a"})
	s.AddEdge(Edge{Source: "a", Target: "ghost", Type: "mentions", Weight: 0.7})

	assert.Empty(t, s.FindClusters())
}
