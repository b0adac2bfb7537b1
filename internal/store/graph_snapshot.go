package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hurttlocker/convograph/internal/graph"
)

// SaveGraph replaces the persisted graph with snap in one transaction.
// Node and edge order is preserved.
func (s *SQLiteStore) SaveGraph(ctx context.Context, snap graph.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting graph save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM graph_edges`,
		`DELETE FROM graph_nodes`,
		`DELETE FROM graph_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing graph tables: %w", err)
		}
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO graph_nodes (id, type, label, properties, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range snap.Nodes {
		props, err := encodeProps(n.Properties)
		if err != nil {
			return fmt.Errorf("encoding node %q properties: %w", n.ID, err)
		}
		if _, err := nodeStmt.ExecContext(ctx, n.ID, n.Type, n.Label, props, formatTime(n.Timestamp)); err != nil {
			return fmt.Errorf("inserting node %q: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO graph_edges (id, source, target, type, weight, properties, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range snap.Edges {
		props, err := encodeProps(e.Properties)
		if err != nil {
			return fmt.Errorf("encoding edge %q properties: %w", e.ID, err)
		}
		if _, err := edgeStmt.ExecContext(ctx, e.ID, e.Source, e.Target, e.Type, e.Weight, props, formatTime(e.Timestamp)); err != nil {
			return fmt.Errorf("inserting edge %q: %w", e.ID, err)
		}
	}

	meta := map[string]string{
		"created":      formatTime(snap.Metadata.Created),
		"last_updated": formatTime(snap.Metadata.LastUpdated),
		"node_count":   strconv.Itoa(len(snap.Nodes)),
		"edge_count":   strconv.Itoa(len(snap.Edges)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing graph meta %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing graph save: %w", err)
	}
	return nil
}

// LoadGraph reads the persisted graph. An empty database yields an empty
// snapshot.
func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Snapshot, error) {
	snap := &graph.Snapshot{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, label, properties, timestamp FROM graph_nodes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying graph nodes: %w", err)
	}
	for rows.Next() {
		var (
			n     graph.Node
			props sql.NullString
			ts    string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Label, &props, &ts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning graph node: %w", err)
		}
		if n.Properties, err = decodeProps(props); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding node %q properties: %w", n.ID, err)
		}
		n.Timestamp = parseTime(ts)
		snap.Nodes = append(snap.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, source, target, type, weight, properties, timestamp FROM graph_edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying graph edges: %w", err)
	}
	for rows.Next() {
		var (
			e     graph.Edge
			props sql.NullString
			ts    string
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Type, &e.Weight, &props, &ts); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning graph edge: %w", err)
		}
		if e.Properties, err = decodeProps(props); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding edge %q properties: %w", e.ID, err)
		}
		e.Timestamp = parseTime(ts)
		snap.Edges = append(snap.Edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metaRows, err := s.db.QueryContext(ctx, `SELECT key, value FROM graph_meta`)
	if err != nil {
		return nil, fmt.Errorf("querying graph meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var k, v string
		if err := metaRows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning graph meta: %w", err)
		}
		switch k {
		case "created":
			snap.Metadata.Created = parseTime(v)
		case "last_updated":
			snap.Metadata.LastUpdated = parseTime(v)
		}
	}
	snap.Metadata.NodeCount = len(snap.Nodes)
	snap.Metadata.EdgeCount = len(snap.Edges)
	return snap, metaRows.Err()
}

func encodeProps(p map[string]any) (any, error) {
	if len(p) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeProps(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var p map[string]any
	if err := json.Unmarshal([]byte(s.String), &p); err != nil {
		return nil, err
	}
	return p, nil
}
