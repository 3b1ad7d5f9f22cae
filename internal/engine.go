package internal

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// SendStatus reports what Engine.Send did with a submission
type SendStatus int

const (
	// SendIgnored means the text was empty or whitespace; nothing changed.
	SendIgnored SendStatus = iota
	// SendBusy means another exchange was still awaiting its reply.
	SendBusy
	// SendCompleted means a user message and its reply were appended.
	SendCompleted
	// SendClosed means the engine was already closed.
	SendClosed
)

func (s SendStatus) String() string {
	switch s {
	case SendIgnored:
		return "ignored"
	case SendBusy:
		return "busy"
	case SendCompleted:
		return "completed"
	case SendClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock overrides the time source used for message ids
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithSaveDelay sets the persistence debounce window
func WithSaveDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.saveDelay = d
	}
}

// Engine owns the in-memory transcript of the conversation. It appends user
// turns, asks the Completer for replies and mirrors every change to the
// TranscriptStore in the background. At most one exchange is in flight; a
// Send that overlaps another is rejected with SendBusy.
type Engine struct {
	store     *TranscriptStore
	completer Completer
	persister *Persister
	now       func() time.Time
	saveDelay time.Duration
	flight    *semaphore.Weighted
	initOnce  sync.Once

	mu         sync.RWMutex
	transcript Transcript
	lastID     int64
	loading    bool
	closed     bool

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewEngine creates an engine over store and completer. Call Initialize
// before rendering; Send initializes lazily if it was skipped.
func NewEngine(store *TranscriptStore, completer Completer, opts ...EngineOption) *Engine {
	e := &Engine{
		store:      store,
		completer:  completer,
		now:        time.Now,
		saveDelay:  DefaultSaveDelay,
		flight:     semaphore.NewWeighted(1),
		transcript: Transcript{},
		subs:       make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.persister = NewPersister(store.Save, e.saveDelay)
	return e
}

// Initialize restores the stored transcript. Only the first call reads the
// store; later calls return the current transcript.
func (e *Engine) Initialize(ctx context.Context) Transcript {
	e.initOnce.Do(func() {
		restored := e.store.Load(ctx)

		e.mu.Lock()
		e.transcript = restored
		e.lastID = restored.LastID()
		e.mu.Unlock()

		LogDebug("Engine initialized with %d message(s)", len(restored))
		e.notify()
	})
	return e.Transcript()
}

// Send appends text as a user message, requests a reply and appends it.
// It blocks until the exchange settles. Completion failures become an
// assistant message carrying ErrorNotice; they are never returned.
func (e *Engine) Send(ctx context.Context, text string) SendStatus {
	if strings.TrimSpace(text) == "" {
		return SendIgnored
	}

	e.Initialize(ctx)

	if !e.flight.TryAcquire(1) {
		LogDebug("Rejecting send: exchange already in flight")
		return SendBusy
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.flight.Release(1)
		return SendClosed
	}
	user := Message{ID: e.nextIDLocked(), Text: text, Sender: SenderUser}
	e.transcript = append(e.transcript, user)
	e.loading = true
	snapshot := e.transcript.Clone()
	e.mu.Unlock()

	e.persister.Schedule(snapshot)
	e.notify()

	start := e.now()
	replyText, err := e.completer.Complete(ctx, text)
	if err != nil {
		logWith("message_id", user.ID, "elapsed", e.now().Sub(start)).Warnf("Completion failed: %v", err)
		replyText = ErrorNotice
	}

	e.mu.Lock()
	reply := Message{ID: e.nextIDLocked(), Text: replyText, Sender: SenderAssistant}
	e.transcript = append(e.transcript, reply)
	e.loading = false
	snapshot = e.transcript.Clone()
	e.mu.Unlock()

	e.persister.Schedule(snapshot)
	// Subscribers that see the reply may send again immediately.
	e.flight.Release(1)
	e.notify()

	return SendCompleted
}

// nextIDLocked returns a wall-clock millisecond id, bumped past the last id
// so ids stay strictly increasing. Caller holds e.mu.
func (e *Engine) nextIDLocked() int64 {
	id := e.now().UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id
	return id
}

// Transcript returns a snapshot safe to read while sends continue
func (e *Engine) Transcript() Transcript {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transcript.Clone()
}

// IsLoading reports whether an exchange is awaiting its reply
func (e *Engine) IsLoading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Subscribe returns a channel that receives a value after each transcript
// or loading change. Notifications coalesce; read Transcript for the state.
// The cancel func unregisters the channel.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	ch := make(chan struct{}, 1)
	if e.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if e.subs == nil {
				return
			}
			if _, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
		})
	}
}

func (e *Engine) notify() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		signal(ch)
	}
}

// Flush blocks until every change made so far has been written to the store
func (e *Engine) Flush(ctx context.Context) error {
	return e.persister.Flush(ctx)
}

// Close waits for an in-flight exchange, writes the final transcript and
// releases subscribers. Further sends return SendClosed.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.flight.Acquire(ctx, 1); err != nil {
		return err
	}
	e.mu.Lock()
	alreadyClosed := e.closed
	e.closed = true
	e.mu.Unlock()
	e.flight.Release(1)

	if alreadyClosed {
		return nil
	}

	err := e.persister.Close(ctx)

	e.subMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subs = nil
	e.subMu.Unlock()

	return err
}
