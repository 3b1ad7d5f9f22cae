package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// CompletionRequest is what the fake server received
type CompletionRequest struct {
	Authorization string
	Model         string
	Messages      []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
}

// FakeCompletionServer serves POST /chat/completions like an
// OpenAI-compatible endpoint
type FakeCompletionServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	reply    string
	rawBody  string
	delay    time.Duration
	requests []CompletionRequest
}

// NewFakeCompletionServer starts a server replying with reply. It is shut
// down when the test ends.
func NewFakeCompletionServer(t *testing.T, reply string) *FakeCompletionServer {
	t.Helper()
	f := &FakeCompletionServer{status: http.StatusOK, reply: reply}

	r := chi.NewRouter()
	r.Post("/chat/completions", f.handle)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// SetReply changes the assistant content returned on success
func (f *FakeCompletionServer) SetReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
	f.rawBody = ""
}

// SetStatus makes the server answer with status and a JSON error body
func (f *FakeCompletionServer) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// SetRawBody makes the server return body verbatim with status 200
func (f *FakeCompletionServer) SetRawBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawBody = body
}

// SetDelay holds each response for d, or until the client goes away
func (f *FakeCompletionServer) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Requests returns every request received so far
func (f *FakeCompletionServer) Requests() []CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletionRequest(nil), f.requests...)
}

func (f *FakeCompletionServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	req := CompletionRequest{Authorization: r.Header.Get("Authorization")}
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, reply, rawBody, delay := f.status, f.reply, f.rawBody, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": http.StatusText(status)},
		})
		return
	}
	if rawBody != "" {
		_, _ = io.WriteString(w, rawBody)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{
			map[string]any{
				"index":   0,
				"message": map[string]string{"role": "assistant", "content": reply},
			},
		},
	})
}
