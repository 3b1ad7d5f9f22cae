package internal

import "time"

// Conversation is a point-in-time copy of the transcript, shaped for export
type Conversation struct {
	Key        string     `json:"key" yaml:"key"`
	Source     string     `json:"source" yaml:"source"` // "sqlite", "file"
	ExportedAt time.Time  `json:"exported_at" yaml:"exported_at"`
	Messages   Transcript `json:"messages" yaml:"messages"`
	Metadata   Metadata   `json:"metadata" yaml:"metadata"`
}

// Metadata summarizes a conversation
type Metadata struct {
	MessageCount      int    `json:"message_count" yaml:"message_count"`
	UserMessages      int    `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int    `json:"assistant_messages" yaml:"assistant_messages"`
	Username          string `json:"username,omitempty" yaml:"username,omitempty"`
}

// NewConversation snapshots t for export
func NewConversation(store *TranscriptStore, t Transcript, exportedAt time.Time) *Conversation {
	user, assistant := t.CountBySender()
	conv := &Conversation{
		ExportedAt: exportedAt.UTC(),
		Messages:   t.Clone(),
		Metadata: Metadata{
			MessageCount:      len(t),
			UserMessages:      user,
			AssistantMessages: assistant,
		},
	}
	if store != nil {
		conv.Key = store.Key()
		conv.Source = store.Source()
	}
	return conv
}
