package graphsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/convograph/internal/graph"
)

type recorder struct {
	stmts  []Statement
	failAt int
}

func (r *recorder) Execute(ctx context.Context, st Statement) error {
	r.stmts = append(r.stmts, st)
	if r.failAt > 0 && len(r.stmts) == r.failAt {
		return errors.New("boom")
	}
	return nil
}

var ts = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func testSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "alex", Type: "person", Label: "Alex", Properties: map[string]any{"role": "speaker"}, Timestamp: ts},
			{ID: "go", Type: "topic", Label: "Go", Timestamp: ts},
		},
		Edges: []graph.Edge{
			{ID: "alex_likes_go", Source: "alex", Target: "go", Type: "likes", Weight: 0.9, Timestamp: ts},
		},
	}
}

func rows(t *testing.T, st Statement) []any {
	t.Helper()
	r, ok := st.Params["rows"].([]any)
	require.True(t, ok)
	return r
}

func TestBuildStatements(t *testing.T) {
	stmts, err := BuildStatements(testSnapshot(), Options{})
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.Equal(t, constraintCypher, stmts[0].Cypher)
	assert.Equal(t, nodeCypher, stmts[1].Cypher)
	assert.Equal(t, edgeCypher, stmts[2].Cypher)

	nodes := rows(t, stmts[1])
	require.Len(t, nodes, 2)
	assert.Equal(t, map[string]any{
		"id":         "alex",
		"type":       "person",
		"label":      "Alex",
		"properties": `{"role":"speaker"}`,
		"timestamp":  "2024-01-15T10:00:00Z",
	}, nodes[0])
	assert.Equal(t, "{}", nodes[1].(map[string]any)["properties"])

	edges := rows(t, stmts[2])
	require.Len(t, edges, 1)
	assert.Equal(t, 0.9, edges[0].(map[string]any)["weight"])
	assert.Equal(t, "go", edges[0].(map[string]any)["target"])
}

func TestBuildStatements_ReplaceAndBatching(t *testing.T) {
	var snap graph.Snapshot
	for i := 0; i < 5; i++ {
		snap.Nodes = append(snap.Nodes, graph.Node{ID: fmt.Sprint(i), Type: "topic", Label: fmt.Sprint(i)})
	}
	stmts, err := BuildStatements(snap, Options{Replace: true, BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, stmts, 5)
	assert.Equal(t, clearCypher, stmts[1].Cypher)
	assert.Len(t, rows(t, stmts[2]), 2)
	assert.Len(t, rows(t, stmts[3]), 2)
	assert.Len(t, rows(t, stmts[4]), 1)
}

func TestBuildStatements_Empty(t *testing.T) {
	stmts, err := BuildStatements(graph.Snapshot{}, Options{})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, constraintCypher, stmts[0].Cypher)
}

func TestBuildStatements_UnencodableProperty(t *testing.T) {
	snap := graph.Snapshot{Nodes: []graph.Node{{ID: "x", Properties: map[string]any{"ch": make(chan int)}}}}
	_, err := BuildStatements(snap, Options{})
	assert.ErrorContains(t, err, "node x")
}

func TestSync(t *testing.T) {
	rec := &recorder{}
	res, err := New(rec).Sync(context.Background(), testSnapshot(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, 1, res.Edges)
	assert.Equal(t, 3, res.Statements)
	assert.Len(t, rec.stmts, 3)
}

func TestSync_StopsOnError(t *testing.T) {
	rec := &recorder{failAt: 2}
	_, err := New(rec).Sync(context.Background(), testSnapshot(), Options{})
	assert.ErrorContains(t, err, "neo4j statement 2/3: boom")
	assert.Len(t, rec.stmts, 2)
}

func TestSync_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	_, err := New(rec).Sync(ctx, testSnapshot(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.stmts)
}
