// Package graphsync mirrors the in-memory knowledge graph into Neo4j.
//
// Nodes become (:Entity {id}) and edges become [:REL {id}] between them.
// Writes are idempotent MERGEs sent in UNWIND batches, so re-syncing the
// same snapshot leaves Neo4j unchanged.
package graphsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/logger"
)

// DefaultBatchSize is the number of rows per UNWIND statement.
const DefaultBatchSize = 500

const (
	constraintCypher = `CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE`

	clearCypher = `MATCH (n:Entity) DETACH DELETE n`

	nodeCypher = `
		UNWIND $rows AS row
		MERGE (n:Entity {id: row.id})
		SET n.type = row.type,
			n.label = row.label,
			n.properties = row.properties,
			n.timestamp = row.timestamp`

	edgeCypher = `
		UNWIND $rows AS row
		MATCH (s:Entity {id: row.source})
		MATCH (t:Entity {id: row.target})
		MERGE (s)-[r:REL {id: row.id}]->(t)
		SET r.type = row.type,
			r.weight = row.weight,
			r.properties = row.properties,
			r.timestamp = row.timestamp`
)

// Statement is one Cypher query with its parameters.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Options controls a sync.
type Options struct {
	// Replace deletes every :Entity before writing.
	Replace   bool
	BatchSize int
}

// Result counts what was written.
type Result struct {
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	Statements int           `json:"statements"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Executor runs a statement in a write transaction.
type Executor interface {
	Execute(ctx context.Context, st Statement) error
}

// Syncer writes snapshots through an Executor.
type Syncer struct {
	exec Executor
	log  *zap.Logger
}

// New wraps an executor. Tests pass a recorder; production code uses
// NewDriverExecutor.
func New(exec Executor) *Syncer {
	return &Syncer{exec: exec, log: logger.Get()}
}

// Sync writes the snapshot. The uniqueness constraint goes first in its own
// transaction since schema and data changes cannot share one.
func (s *Syncer) Sync(ctx context.Context, snap graph.Snapshot, opts Options) (Result, error) {
	start := time.Now()
	stmts, err := BuildStatements(snap, opts)
	if err != nil {
		return Result{}, err
	}

	for i, st := range stmts {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := s.exec.Execute(ctx, st); err != nil {
			return Result{}, fmt.Errorf("neo4j statement %d/%d: %w", i+1, len(stmts), err)
		}
	}

	res := Result{
		Nodes:      len(snap.Nodes),
		Edges:      len(snap.Edges),
		Statements: len(stmts),
		Elapsed:    time.Since(start),
	}
	s.log.Info("synced graph to neo4j",
		zap.Int("nodes", res.Nodes),
		zap.Int("edges", res.Edges),
		zap.Int("statements", res.Statements),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// BuildStatements renders the full statement sequence for a snapshot.
// Node batches always precede edge batches so MATCH finds both endpoints.
func BuildStatements(snap graph.Snapshot, opts Options) ([]Statement, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	stmts := []Statement{{Cypher: constraintCypher}}
	if opts.Replace {
		stmts = append(stmts, Statement{Cypher: clearCypher})
	}

	nodeRows := make([]any, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		row, err := NodeRow(n)
		if err != nil {
			return nil, err
		}
		nodeRows = append(nodeRows, row)
	}
	edgeRows := make([]any, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		row, err := EdgeRow(e)
		if err != nil {
			return nil, err
		}
		edgeRows = append(edgeRows, row)
	}

	for _, batch := range chunk(nodeRows, size) {
		stmts = append(stmts, Statement{Cypher: nodeCypher, Params: map[string]any{"rows": batch}})
	}
	for _, batch := range chunk(edgeRows, size) {
		stmts = append(stmts, Statement{Cypher: edgeCypher, Params: map[string]any{"rows": batch}})
	}
	return stmts, nil
}

// NodeRow flattens a node into Neo4j-compatible values. Properties are
// JSON-encoded since Neo4j rejects nested maps as property values.
func NodeRow(n graph.Node) (map[string]any, error) {
	props, err := encodeProperties(n.Properties)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.ID, err)
	}
	return map[string]any{
		"id":         n.ID,
		"type":       n.Type,
		"label":      n.Label,
		"properties": props,
		"timestamp":  n.Timestamp.UTC().Format(time.RFC3339Nano),
	}, nil
}

// EdgeRow flattens an edge the same way.
func EdgeRow(e graph.Edge) (map[string]any, error) {
	props, err := encodeProperties(e.Properties)
	if err != nil {
		return nil, fmt.Errorf("edge %s: %w", e.ID, err)
	}
	return map[string]any{
		"id":         e.ID,
		"source":     e.Source,
		"target":     e.Target,
		"type":       e.Type,
		"weight":     e.Weight,
		"properties": props,
		"timestamp":  e.Timestamp.UTC().Format(time.RFC3339Nano),
	}, nil
}

func encodeProperties(p map[string]any) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding properties: %w", err)
	}
	return string(b), nil
}

func chunk(rows []any, size int) [][]any {
	var out [][]any
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}

// DriverExecutor runs statements through a Neo4j driver, one write
// transaction each.
type DriverExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password, database string) (*DriverExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}
	return &DriverExecutor{driver: driver, database: database}, nil
}

func (d *DriverExecutor) Execute(ctx context.Context, st Statement) error {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, st.Cypher, st.Params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// Close closes the underlying driver.
func (d *DriverExecutor) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
