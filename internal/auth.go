package internal

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionSlot is the storage slot holding the signed-in session record
const SessionSlot = "session"

const (
	reasonMissingFields      = "Please fill in both fields"
	reasonInvalidCredentials = "Invalid username or password"
)

// SessionStatus is the observable state of the auth gate
type SessionStatus int

const (
	SessionLoading SessionStatus = iota
	SessionPresent
	SessionAbsent
)

func (s SessionStatus) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionPresent:
		return "present"
	case SessionAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// AuthState is an immutable snapshot of the gate
type AuthState struct {
	Status    SessionStatus
	SessionID string
	Username  string
	Since     time.Time
}

// Present reports whether a user is signed in
func (s AuthState) Present() bool {
	return s.Status == SessionPresent
}

// Credentials is a username/password pair
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Configured reports whether both fields are set
func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

type sessionRecord struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Since    time.Time `json:"since"`
}

// Gate decides whether the chat engine may be used. It starts in
// SessionLoading and moves to present or absent once the stored session
// has been checked.
type Gate struct {
	kv       KVStore
	expected Credentials
	now      func() time.Time

	mu    sync.Mutex
	state AuthState
	subs  map[int]chan AuthState
	next  int
}

// NewGate creates a gate that checks sign-ins against expected and keeps
// the session record in kv
func NewGate(kv KVStore, expected Credentials) *Gate {
	return &Gate{
		kv:       kv,
		expected: expected,
		now:      time.Now,
		state:    AuthState{Status: SessionLoading},
		subs:     make(map[int]chan AuthState),
	}
}

// State returns the current snapshot
func (g *Gate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CheckSession consults the stored session record. It only has an effect
// while the gate is loading.
func (g *Gate) CheckSession(ctx context.Context) AuthState {
	g.mu.Lock()
	if g.state.Status != SessionLoading {
		state := g.state
		g.mu.Unlock()
		return state
	}
	g.mu.Unlock()

	next := AuthState{Status: SessionAbsent}
	if rec, ok := g.loadRecord(ctx); ok {
		next = AuthState{Status: SessionPresent, SessionID: rec.ID, Username: rec.Username, Since: rec.Since}
	}

	g.mu.Lock()
	if g.state.Status == SessionLoading {
		g.setLocked(next)
	}
	state := g.state
	g.mu.Unlock()

	LogDebug("Session check: %s", state.Status)
	return state
}

func (g *Gate) loadRecord(ctx context.Context) (sessionRecord, bool) {
	var rec sessionRecord

	data, ok, err := g.kv.Get(ctx, SessionSlot)
	if err != nil {
		LogWarn("Failed to read session: %v", err)
		return rec, false
	}
	if !ok || len(data) == 0 {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		LogWarn("Discarding stored session: %v", &ParseError{Source: "session", Key: SessionSlot, Err: err})
		return rec, false
	}
	if rec.ID == "" {
		return rec, false
	}
	if g.expected.Username != "" && rec.Username != g.expected.Username {
		LogDebug("Stored session belongs to %q, ignoring", rec.Username)
		return rec, false
	}
	return rec, true
}

// SignIn compares creds verbatim against the expected pair. The returned
// *AuthError carries a message meant for the user.
func (g *Gate) SignIn(ctx context.Context, creds Credentials) (AuthState, error) {
	if creds.Username == "" || creds.Password == "" {
		return g.State(), &AuthError{Reason: reasonMissingFields}
	}
	if !g.expected.Configured() {
		return g.State(), ErrAuthNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(g.expected.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(g.expected.Password)) == 1
	if !userOK || !passOK {
		LogDebug("Sign-in rejected for %q", creds.Username)
		return g.State(), &AuthError{Reason: reasonInvalidCredentials}
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	rec := sessionRecord{ID: id.String(), Username: creds.Username, Since: g.now().UTC()}

	// The session stays valid for this process even if it cannot be stored.
	if data, err := json.Marshal(rec); err != nil {
		LogWarn("Failed to encode session: %v", err)
	} else if err := g.kv.Put(ctx, SessionSlot, data); err != nil {
		LogWarn("Failed to store session: %v", err)
	}

	g.mu.Lock()
	g.setLocked(AuthState{Status: SessionPresent, SessionID: rec.ID, Username: rec.Username, Since: rec.Since})
	state := g.state
	g.mu.Unlock()

	logWith("session_id", rec.ID).Infof("Signed in as %s", rec.Username)
	return state, nil
}

// SignOut clears the session record. The transcript slot is left alone.
func (g *Gate) SignOut(ctx context.Context) error {
	err := g.kv.Delete(ctx, SessionSlot)
	if err != nil {
		LogWarn("Failed to clear stored session: %v", err)
	}

	g.mu.Lock()
	g.setLocked(AuthState{Status: SessionAbsent})
	g.mu.Unlock()

	LogInfo("Signed out")
	return err
}

// Require checks the stored session if needed and returns ErrNotSignedIn
// unless a session is present
func (g *Gate) Require(ctx context.Context) (AuthState, error) {
	state := g.CheckSession(ctx)
	if !state.Present() {
		return state, ErrNotSignedIn
	}
	return state, nil
}

// Subscribe returns a channel that always holds the latest state after a
// change. The cancel func unregisters and closes it.
func (g *Gate) Subscribe() (<-chan AuthState, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan AuthState, 1)
	id := g.next
	g.next++
	g.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if _, ok := g.subs[id]; ok {
				delete(g.subs, id)
				close(ch)
			}
		})
	}
}

// setLocked replaces the state and publishes it. Caller holds g.mu.
func (g *Gate) setLocked(state AuthState) {
	g.state = state
	for _, ch := range g.subs {
		// keep only the newest state in the buffer
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}
