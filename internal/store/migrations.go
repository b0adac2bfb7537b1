package store

import (
	"database/sql"
	"fmt"
	"time"
)

const schemaVersion = "1"

var bootstrapDDL = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memories (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		key        TEXT NOT NULL UNIQUE,
		value      TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT 'general',
		confidence REAL NOT NULL DEFAULT 1.0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category)`,
	`CREATE TABLE IF NOT EXISTS graph_nodes (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		type       TEXT NOT NULL,
		label      TEXT NOT NULL,
		properties TEXT,
		timestamp  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS graph_edges (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		source     TEXT NOT NULL,
		target     TEXT NOT NULL,
		type       TEXT NOT NULL,
		weight     REAL NOT NULL,
		properties TEXT,
		timestamp  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges(source)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges(target)`,
	`CREATE TABLE IF NOT EXISTS graph_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// migrate creates all tables if they don't exist and seeds metadata.
func (s *SQLiteStore) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}

	if !bootstrapDone {
		if err := s.runBootstrapDDL(); err != nil {
			return err
		}
	}

	// Seed metadata (outside bootstrap transaction, meta table now exists)
	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if !bootstrapDone {
		if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
			return fmt.Errorf("marking bootstrap complete: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range bootstrapDDL {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bootstrap: %w", err)
	}
	return nil
}

func (s *SQLiteStore) isMetaFlagEnabled(key string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (s *SQLiteStore) setMetaFlag(key string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, 'true')", key)
	return err
}

func (s *SQLiteStore) seedMeta() error {
	defaults := map[string]string{
		"schema_version": schemaVersion,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}

	for k, v := range defaults {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)", k, v,
		)
		if err != nil {
			return fmt.Errorf("seeding meta %q: %w", k, err)
		}
	}
	return nil
}
