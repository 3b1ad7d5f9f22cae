package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) a SQLite database and makes sure
// the kv table exists
func OpenDatabase(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the kv table when missing
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createKVTableSQL); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// QueryKV queries the kv table with a LIKE pattern
func QueryKV(ctx context.Context, db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := "SELECT key, value FROM kv WHERE key LIKE ? AND value IS NOT NULL ORDER BY key"
	rows, err := db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// KeyValuePair represents a row of the kv table
type KeyValuePair struct {
	Key   string
	Value string
}

// SQLiteKV is a KVStore backed by the kv table of a SQLite database
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV wraps an open database. The caller keeps ownership of db
// unless Close is called.
func NewSQLiteKV(db *sql.DB) (*SQLiteKV, error) {
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteKV{db: db}, nil
}

// OpenSQLiteKV opens the database at path and returns a KVStore over it
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Key: path, Op: "open", Err: err}
	}
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageError{Key: key, Op: "get", Err: err}
	}
	if !value.Valid {
		return nil, false, nil
	}
	return []byte(value.String), true, nil
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value))
	if err != nil {
		return &StorageError{Key: key, Op: "put", Err: err}
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

// Keys lists every populated slot
func (s *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	pairs, err := QueryKV(ctx, s.db, "%")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, pair.Key)
	}
	return keys, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
