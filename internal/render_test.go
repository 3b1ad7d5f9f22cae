package internal

import (
	"strings"
	"testing"
)

func TestRendererPlain(t *testing.T) {
	r := NewRenderer(false, 0)

	got := r.RenderTranscript(Transcript{
		{ID: 1, Text: "hello", Sender: SenderUser},
		{ID: 2, Text: "hi there", Sender: SenderAssistant},
	})

	want := "You: hello\nAI: hi there\n"
	if got != want {
		t.Errorf("RenderTranscript() = %q, want %q", got, want)
	}
}

func TestRendererStyled(t *testing.T) {
	r := NewRenderer(true, 60)

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{name: "user", msg: Message{ID: 1, Text: "hello", Sender: SenderUser}, want: "hello"},
		{name: "markdown reply", msg: Message{ID: 2, Text: "**bold** reply", Sender: SenderAssistant}, want: "bold"},
		{name: "error notice", msg: Message{ID: 3, Text: ErrorNotice, Sender: SenderAssistant}, want: "Please try again later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RenderMessage(tt.msg)
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderMessage() = %q, want it to contain %q", got, tt.want)
			}
			if !strings.Contains(got, tt.msg.Sender.Label()) {
				t.Errorf("RenderMessage() = %q, missing label", got)
			}
		})
	}
}

func TestRendererEmptyTranscript(t *testing.T) {
	if got := NewRenderer(false, 0).RenderTranscript(Transcript{}); got != "" {
		t.Errorf("RenderTranscript(empty) = %q", got)
	}
}
