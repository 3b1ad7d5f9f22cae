package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleTranscriptJSON is a stored transcript of four messages
const SampleTranscriptJSON = `[` +
	`{"id":"1700000000000","text":"hello","sender":"user"},` +
	`{"id":"1700000000001","text":"hi there","sender":"ai"},` +
	`{"id":"1700000005000","text":"how are you?","sender":"user"},` +
	`{"id":"1700000005001","text":"Error getting response from AI. Please try again later.","sender":"ai"}` +
	`]`

// CreateSQLiteFixture creates a SQLite database file holding the given slots
func CreateSQLiteFixture(t *testing.T, dbPath string, slots map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createKVTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	for key, value := range slots {
		if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value); err != nil {
			t.Fatalf("Failed to insert slot %s: %v", key, err)
		}
	}
}

// CreateSlotFixture writes one slot file for the file-backed store
func CreateSlotFixture(t *testing.T, dir, key, value string) string {
	t.Helper()
	return WriteFile(t, dir, key+".json", []byte(value))
}
