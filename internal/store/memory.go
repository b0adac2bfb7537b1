package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const memoryColumns = `key, value, category, confidence, created_at, updated_at`

// PutMemory stores value under key, replacing any existing entry in place.
// Empty category and non-positive confidence fall back to the defaults.
func (s *SQLiteStore) PutMemory(ctx context.Context, key string, value any, category string, confidence float64) (*Memory, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("memory key cannot be empty")
	}
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	if confidence > 1 {
		confidence = 1
	}
	raw, err := encodeValue(value)
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (key, value, category, confidence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   category = excluded.category,
		   confidence = excluded.confidence,
		   updated_at = excluded.updated_at`,
		key, string(raw), category, confidence, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("storing memory %q: %w", key, err)
	}
	return s.GetMemory(ctx, key)
}

// GetMemory retrieves a memory by key. Returns nil if not found.
func (s *SQLiteStore) GetMemory(ctx context.Context, key string) (*Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE key = ?`, key)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting memory %q: %w", key, err)
	}
	return m, nil
}

// SearchMemories matches query case-insensitively against key, JSON value
// and category. An empty query matches everything.
func (s *SQLiteStore) SearchMemories(ctx context.Context, query string) ([]*Memory, error) {
	q := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryMemories(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE LOWER(key) LIKE ? ESCAPE '\'
		    OR LOWER(value) LIKE ? ESCAPE '\'
		    OR LOWER(category) LIKE ? ESCAPE '\'
		 ORDER BY id`, q, q, q)
}

// UpdateMemory replaces the value of an existing memory. Returns nil when
// the key does not exist.
func (s *SQLiteStore) UpdateMemory(ctx context.Context, key string, value any) (*Memory, error) {
	raw, err := encodeValue(value)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET value = ?, updated_at = ? WHERE key = ?`,
		string(raw), formatTime(s.now()), key)
	if err != nil {
		return nil, fmt.Errorf("updating memory %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetMemory(ctx, key)
}

// DeleteMemory removes a memory. Reports whether a row was removed.
func (s *SQLiteStore) DeleteMemory(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("deleting memory %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// ListMemories returns every memory in first-stored order.
func (s *SQLiteStore) ListMemories(ctx context.Context) ([]*Memory, error) {
	return s.queryMemories(ctx, `SELECT `+memoryColumns+` FROM memories ORDER BY id`)
}

func (s *SQLiteStore) queryMemories(ctx context.Context, query string, args ...any) ([]*Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(r rowScanner) (*Memory, error) {
	var (
		m                Memory
		value            string
		created, updated string
	)
	if err := r.Scan(&m.Key, &value, &m.Category, &m.Confidence, &created, &updated); err != nil {
		return nil, err
	}
	m.Value = json.RawMessage(value)
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return &m, nil
}

func encodeValue(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok && json.Valid(raw) {
		return raw, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding memory value: %w", err)
	}
	return b, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Insight renders the memory as one line of prompt context.
func (m *Memory) Insight() string {
	return fmt.Sprintf("Memory %s [%s]: %s", m.Key, m.Category, string(m.Value))
}
