package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// slotInfo describes one storage slot
type slotInfo struct {
	Key      string             `json:"key"`
	Bytes    int                `json:"bytes"`
	Kind     string             `json:"kind"` // "transcript", "session", "unknown"
	Messages int                `json:"messages,omitempty"`
	Username string             `json:"username,omitempty"`
	Error    string             `json:"error,omitempty"`
	Sample   internal.Transcript `json:"sample,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the storage slots",
	Long: `Inspect the slots of the configured storage backend.

This command shows, for every slot:
  • Its size and what it holds (transcript or session record)
  • Whether the stored data can be decoded
  • The first messages of the transcript (--sample)

Examples:
  pocket-chat inspect                          # Inspect the default store
  pocket-chat inspect --storage /path/to.db    # Inspect a specific database
  pocket-chat inspect --format json --sample 5 # JSON output with 5 sample messages`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFormat != "text" && inspectFormat != "json" {
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		keys, err := a.kv.Keys(ctx)
		if err != nil {
			return fmt.Errorf("failed to list slots: %w", err)
		}

		slots := make([]slotInfo, 0, len(keys))
		for _, key := range keys {
			data, ok, err := a.kv.Get(ctx, key)
			if err != nil {
				slots = append(slots, slotInfo{Key: key, Kind: "unknown", Error: err.Error()})
				continue
			}
			if !ok {
				continue
			}
			slots = append(slots, describeSlot(key, data, a.store.Key(), inspectSampleRows))
		}

		out := cmd.OutOrStdout()
		if inspectFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"backend": cfg.Storage.Backend,
				"path":    cfg.Storage.Path,
				"slots":   slots,
			})
		}

		printSlots(out, slots)
		return nil
	},
}

func describeSlot(key string, data []byte, transcriptKey string, sample int) slotInfo {
	info := slotInfo{Key: key, Bytes: len(data), Kind: "unknown"}

	switch key {
	case transcriptKey:
		info.Kind = "transcript"
		t, err := internal.DecodeTranscript(data)
		if err != nil {
			info.Error = err.Error()
			return info
		}
		info.Messages = len(t)
		if sample > 0 {
			if len(t) > sample {
				t = t[:sample]
			}
			info.Sample = t
		}
	case internal.SessionSlot:
		info.Kind = "session"
		var rec struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			info.Error = err.Error()
			return info
		}
		info.Username = rec.Username
	}
	return info
}

func printSlots(w io.Writer, slots []slotInfo) {
	fmt.Fprintf(w, "📋 Storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
	fmt.Fprintf(w, "📊 Found %d slot(s)\n\n", len(slots))

	for _, s := range slots {
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(w, "📦 Slot: %s (%s, %d bytes)\n", s.Key, s.Kind, s.Bytes)
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

		switch {
		case s.Error != "":
			fmt.Fprintf(w, "⚠️  Cannot decode: %s\n", s.Error)
		case s.Kind == "transcript":
			fmt.Fprintf(w, "  • Messages: %d\n", s.Messages)
		case s.Kind == "session":
			fmt.Fprintf(w, "  • Username: %s\n", s.Username)
		}

		if len(s.Sample) > 0 {
			fmt.Fprintf(w, "\n📄 Sample (first %d message(s)):\n", len(s.Sample))
			for _, msg := range s.Sample {
				text := msg.Text
				// Truncate long values
				if len(text) > 200 {
					text = text[:200] + "..."
				}
				if i := strings.IndexByte(text, '\n'); i >= 0 {
					text = text[:i] + "..."
				}
				fmt.Fprintf(w, "    [%d] %s: %s\n", msg.ID, msg.Sender, text)
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of transcript messages to show")
}
