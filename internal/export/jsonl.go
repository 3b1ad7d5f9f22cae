package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/pocket-chat/internal"
)

// JSONLExporter exports conversations in JSONL format (one message per line)
type JSONLExporter struct{}

// Export writes each message as {"id","text","sender"} on its own line,
// the same shape the store uses
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range conv.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message %d: %w", msg.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
