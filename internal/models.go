package internal

import (
	"fmt"
	"strings"
)

// ErrorNotice is the assistant text recorded when a completion fails
const ErrorNotice = "Error getting response from AI. Please try again later."

// Sender identifies who wrote a message
type Sender int

const (
	SenderUser Sender = iota + 1
	SenderAssistant
)

// String returns the stored form of the sender ("user" or "ai")
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAssistant:
		return "ai"
	default:
		return fmt.Sprintf("sender(%d)", int(s))
	}
}

// Label returns the human-facing name shown next to a message
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "AI"
}

// MarshalText implements encoding.TextMarshaler
func (s Sender) MarshalText() ([]byte, error) {
	if s != SenderUser && s != SenderAssistant {
		return nil, fmt.Errorf("invalid sender %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Both "ai" and
// "assistant" decode to SenderAssistant.
func (s *Sender) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "user":
		*s = SenderUser
	case "ai", "assistant":
		*s = SenderAssistant
	default:
		return fmt.Errorf("unknown sender %q", string(text))
	}
	return nil
}

// Message is a single transcript entry. Messages are never edited after
// they are appended.
type Message struct {
	ID     int64  `json:"id,string" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Sender Sender `json:"sender" yaml:"sender"`
}

// Transcript is the ordered message log of the single conversation
type Transcript []Message

// Clone returns a copy that shares no backing array with t
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// LastID returns the id of the last message, or 0 for an empty transcript
func (t Transcript) LastID() int64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].ID
}

// Validate checks the transcript invariants: known senders, non-empty user
// text, and ids that are unique and strictly increasing in append order.
func (t Transcript) Validate() error {
	var prev int64
	for i, msg := range t {
		if msg.Sender != SenderUser && msg.Sender != SenderAssistant {
			return fmt.Errorf("message %d: invalid sender %d", i, int(msg.Sender))
		}
		if msg.Sender == SenderUser && strings.TrimSpace(msg.Text) == "" {
			return fmt.Errorf("message %d: empty user text", i)
		}
		if i > 0 && msg.ID <= prev {
			return fmt.Errorf("message %d: id %d does not follow %d", i, msg.ID, prev)
		}
		prev = msg.ID
	}
	return nil
}

// CountBySender returns how many messages each sender contributed
func (t Transcript) CountBySender() (user, assistant int) {
	for _, msg := range t {
		switch msg.Sender {
		case SenderUser:
			user++
		case SenderAssistant:
			assistant++
		}
	}
	return user, assistant
}
