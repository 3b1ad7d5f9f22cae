package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iksnae/pocket-chat/internal"
)

// Exporter writes a conversation snapshot in one format
type Exporter interface {
	Export(conv *internal.Conversation, w io.Writer) error
	Extension() string
}

// formats maps every accepted --format value, aliases included
var formats = map[string]func() Exporter{
	"jsonl":    func() Exporter { return &JSONLExporter{} },
	"json":     func() Exporter { return &JSONExporter{} },
	"md":       func() Exporter { return &MarkdownExporter{} },
	"markdown": func() Exporter { return &MarkdownExporter{} },
	"yaml":     func() Exporter { return &YAMLExporter{} },
	"yml":      func() Exporter { return &YAMLExporter{} },
}

// NewExporter returns the exporter for format. Matching ignores case.
func NewExporter(format string) (Exporter, error) {
	newFn, ok := formats[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return newFn(), nil
}

// Formats lists the accepted format names in order
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
