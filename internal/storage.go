package internal

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultTranscriptKey is the slot holding the serialized transcript
const DefaultTranscriptKey = "messages"

// KVStore is durable named-slot storage
type KVStore interface {
	// Get returns the slot value and whether the slot exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// TranscriptStore loads and saves the transcript slot of a KVStore
type TranscriptStore struct {
	kv     KVStore
	key    string
	source string
}

// NewTranscriptStore creates a TranscriptStore over kv. An empty key uses
// DefaultTranscriptKey.
func NewTranscriptStore(kv KVStore, key string) *TranscriptStore {
	if key == "" {
		key = DefaultTranscriptKey
	}
	source := "kv"
	switch kv.(type) {
	case *SQLiteKV:
		source = "sqlite"
	case *FileKV:
		source = "file"
	}
	return &TranscriptStore{kv: kv, key: key, source: source}
}

// Key returns the slot name
func (s *TranscriptStore) Key() string {
	return s.key
}

// Load returns the stored transcript. A missing slot, a read failure or
// malformed data all yield an empty transcript; the latter two are logged.
func (s *TranscriptStore) Load(ctx context.Context) Transcript {
	t, err := s.load(ctx)
	if err != nil {
		LogWarn("Discarding stored transcript: %v", err)
		return Transcript{}
	}
	return t
}

func (s *TranscriptStore) load(ctx context.Context) (Transcript, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		LogDebug("No stored transcript under %q", s.key)
		return Transcript{}, nil
	}

	t, err := DecodeTranscript(data)
	if err != nil {
		return nil, &ParseError{Source: s.source, Key: s.key, Err: err}
	}
	LogDebug("Loaded %d message(s) from %q", len(t), s.key)
	return t, nil
}

// Save writes t to the slot, replacing what was there
func (s *TranscriptStore) Save(ctx context.Context, t Transcript) error {
	data, err := EncodeTranscript(t)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return s.kv.Put(ctx, s.key, data)
}

// EncodeTranscript serializes t as a JSON array of {id, text, sender}
func EncodeTranscript(t Transcript) ([]byte, error) {
	if t == nil {
		t = Transcript{}
	}
	return json.Marshal(t)
}

// DecodeTranscript parses and validates a serialized transcript
func DecodeTranscript(data []byte) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t == nil {
		// "null" decodes to a nil slice
		t = Transcript{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Source names the backend kind ("sqlite", "file" or "kv")
func (s *TranscriptStore) Source() string {
	return s.source
}
