package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/pocket-chat/internal"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export writes a readable transcript with a short header
func (e *MarkdownExporter) Export(conv *internal.Conversation, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Conversation\n\n")

	if conv.Metadata.Username != "" {
		_, _ = fmt.Fprintf(w, "**User:** %s  \n", conv.Metadata.Username)
	}
	if conv.Source != "" {
		_, _ = fmt.Fprintf(w, "**Source:** %s  \n", conv.Source)
	}
	if !conv.ExportedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", conv.ExportedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(conv.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range conv.Messages {
		sent := time.UnixMilli(msg.ID).UTC().Format(time.RFC3339)
		content := escapeMarkdown(msg.Text)

		_, _ = fmt.Fprintf(w, "**%s:** (%s)\n\n%s\n\n", msg.Sender.Label(), sent, content)

		if i < len(conv.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
