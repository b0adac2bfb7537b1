// Package store provides the SQLite storage layer for convograph.
//
// A single database file holds:
// - Flat key/value memories with category and confidence
// - Knowledge graph snapshots (nodes, edges, graph metadata)
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hurttlocker/convograph/internal/graph"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.convograph/convograph.db"

// DefaultCategory is assigned to memories stored without one.
const DefaultCategory = "general"

// DefaultConfidence is assigned to memories stored without one.
const DefaultConfidence = 1.0

// Memory is one stored key/value fact.
type Memory struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	Category   string          `json:"category"`
	Confidence float64         `json:"confidence"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// StoreStats holds observability statistics about the store.
type StoreStats struct {
	MemoryCount int64 `json:"memory_count"`
	NodeCount   int64 `json:"node_count"`
	EdgeCount   int64 `json:"edge_count"`
	DBSizeBytes int64 `json:"db_size_bytes"`
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the storage interface.
type Store interface {
	// Memories
	PutMemory(ctx context.Context, key string, value any, category string, confidence float64) (*Memory, error)
	GetMemory(ctx context.Context, key string) (*Memory, error)
	SearchMemories(ctx context.Context, query string) ([]*Memory, error)
	UpdateMemory(ctx context.Context, key string, value any) (*Memory, error)
	DeleteMemory(ctx context.Context, key string) (bool, error)
	ListMemories(ctx context.Context) ([]*Memory, error)

	// Graph snapshots
	SaveGraph(ctx context.Context, snap graph.Snapshot) error
	LoadGraph(ctx context.Context) (*graph.Snapshot, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	// Maintenance
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	cfg.DBPath = expandPath(cfg.DBPath)

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only, never auto-vacuum.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats returns row counts and the database file size.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	st := &StoreStats{}
	counts := []struct {
		table string
		dst   *int64
	}{
		{"memories", &st.MemoryCount},
		{"graph_nodes", &st.NodeCount},
		{"graph_edges", &st.EdgeCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}
	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
