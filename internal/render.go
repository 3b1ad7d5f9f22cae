package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Italic(true)
)

// Renderer formats transcript messages for a terminal
type Renderer struct {
	styled bool
	md     *glamour.TermRenderer
}

// NewRenderer creates a renderer. Styled output renders assistant replies
// as markdown; plain output prints "Label: text" lines.
func NewRenderer(styled bool, width int) *Renderer {
	r := &Renderer{styled: styled}
	if !styled {
		return r
	}
	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		LogDebug("Markdown renderer unavailable: %v", err)
		return r
	}
	r.md = md
	return r
}

// NewRendererFor returns a styled renderer when w is a terminal
func NewRendererFor(w io.Writer) *Renderer {
	return NewRenderer(isTerminal(w), 80)
}

// Styled reports whether output carries terminal styling
func (r *Renderer) Styled() bool {
	return r.styled
}

// RenderMessage formats one message
func (r *Renderer) RenderMessage(msg Message) string {
	if !r.styled {
		return fmt.Sprintf("%s: %s\n", msg.Sender.Label(), msg.Text)
	}

	var label string
	if msg.Sender == SenderUser {
		label = userLabelStyle.Render(msg.Sender.Label())
	} else {
		label = assistantLabelStyle.Render(msg.Sender.Label())
	}

	body := msg.Text
	switch {
	case msg.Sender == SenderAssistant && msg.Text == ErrorNotice:
		body = noticeStyle.Render(msg.Text)
	case msg.Sender == SenderAssistant && r.md != nil:
		if out, err := r.md.Render(msg.Text); err == nil {
			return label + "\n" + strings.TrimRight(out, "\n") + "\n"
		}
	}
	return label + ": " + body + "\n"
}

// RenderTranscript formats every message in order
func (r *Renderer) RenderTranscript(t Transcript) string {
	var b strings.Builder
	for _, msg := range t {
		b.WriteString(r.RenderMessage(msg))
	}
	return b.String()
}
