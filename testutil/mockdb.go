package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`

// CreateInMemoryDB creates an in-memory SQLite database with the kv table.
// It is limited to one connection since each :memory: connection is its
// own database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// InsertSlot writes a raw slot value into the kv table
func InsertSlot(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert slot %s: %v", key, err)
	}
}

// ReadSlot returns the raw slot value, failing the test when it is missing
func ReadSlot(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	var value string
	if err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value); err != nil {
		t.Fatalf("Failed to read slot %s: %v", key, err)
	}
	return value
}
