package internal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CreateTestTranscript creates a transcript of n alternating user and
// assistant messages with increasing ids
func CreateTestTranscript(n int) Transcript {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()
	t := make(Transcript, 0, n)
	for i := 0; i < n; i++ {
		msg := Message{ID: base + int64(i)}
		if i%2 == 0 {
			msg.Sender = SenderUser
			msg.Text = "question " + string(rune('a'+i%26))
		} else {
			msg.Sender = SenderAssistant
			msg.Text = "answer " + string(rune('a'+i%26))
		}
		t = append(t, msg)
	}
	return t
}

// CreateTestConversation creates a conversation over CreateTestTranscript(n)
func CreateTestConversation(n int) *Conversation {
	conv := NewConversation(nil, CreateTestTranscript(n), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	conv.Key = DefaultTranscriptKey
	conv.Source = "sqlite"
	return conv
}

// MemoryKV is an in-memory KVStore for tests
type MemoryKV struct {
	mu     sync.Mutex
	slots  map[string][]byte
	PutErr error // returned by Put when set
	GetErr error // returned by Get when set
	puts   int
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{slots: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	v, ok := m.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.slots[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.slots))
	for k := range m.slots {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

// SetPutErr changes the error returned by Put
func (m *MemoryKV) SetPutErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutErr = err
}

// Puts returns how many times Put was called
func (m *MemoryKV) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// StubCompleter is a Completer returning canned replies
type StubCompleter struct {
	mu    sync.Mutex
	Reply func(ctx context.Context, text string) (string, error)
	calls []string
}

// EchoCompleter replies with the upper-cased input
func EchoCompleter() *StubCompleter {
	return &StubCompleter{Reply: func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	}}
}

func (s *StubCompleter) Complete(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	reply := s.Reply
	s.mu.Unlock()
	return reply(ctx, text)
}

// Calls returns the texts passed to Complete so far
func (s *StubCompleter) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
