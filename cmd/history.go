package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

var historyLimit int

var (
	historyHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				MarginBottom(1)

	historyMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the stored transcript",
	Long: `Display the stored transcript in order.

Use --limit to show only the most recent messages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		state, err := a.requireSession(ctx)
		if err != nil {
			return err
		}

		transcript := a.store.Load(ctx)
		out := cmd.OutOrStdout()
		if len(transcript) == 0 {
			printer(cmd).Info("No messages yet. Start with 'pocket-chat chat'.")
			return nil
		}

		shown := transcript
		if historyLimit > 0 && len(shown) > historyLimit {
			shown = shown[len(shown)-historyLimit:]
		}

		r := internal.NewRendererFor(out)
		header := fmt.Sprintf("Conversation of %s", state.Username)
		meta := fmt.Sprintf("Showing %d of %d message(s)", len(shown), len(transcript))
		if r.Styled() {
			header = historyHeaderStyle.Render("💬 " + header)
			meta = historyMetaStyle.Render(meta)
		}
		fmt.Fprintln(out, header)
		fmt.Fprintln(out, meta)
		fmt.Fprintln(out)
		fmt.Fprint(out, r.RenderTranscript(shown))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N messages (0 = all)")
}
