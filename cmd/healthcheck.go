package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckPing    bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that pocket-chat is configured and its storage is usable",
	Long: `Check the health of pocket-chat by verifying:
  • Configuration and data paths
  • Storage access and the stored transcript
  • Sign-in credentials and the stored session
  • Completion service settings (use --ping to send a test request)

This command is useful for debugging setup problems.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		failed := false

		fmt.Fprintln(out, sectionStyle.Render("🔍 Pocket Chat Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		if paths.ConfigExists() || configPath != "" {
			fmt.Fprintln(out, successStyle.Render("✅ Config file loaded"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No config file, using defaults and environment"))
		}
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config dir: %s\n", paths.ConfigDir)
			fmt.Fprintf(out, "   Data dir:   %s\n", paths.DataDir)
			fmt.Fprintf(out, "   Log level:  %s\n", cfg.Logging.Level)
		}
		fmt.Fprintln(out)

		// Step 2: Storage
		fmt.Fprintln(out, infoStyle.Render("Step 2: Testing storage access..."))
		a, err := openApp()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer a.Close()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s storage at %s", cfg.Storage.Backend, cfg.Storage.Path)))

		keys, err := a.kv.Keys(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to list storage slots:"), err)
			failed = true
		} else if healthcheckVerbose {
			fmt.Fprintf(out, "   Slots: %v\n", keys)
		}

		transcript := a.store.Load(ctx)
		user, assistant := transcript.CountBySender()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Transcript %q: %d message(s)", a.store.Key(), len(transcript))))
		if healthcheckVerbose && len(transcript) > 0 {
			fmt.Fprintf(out, "   You: %d, AI: %d\n", user, assistant)
		}
		fmt.Fprintln(out)

		// Step 3: Auth
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking sign-in..."))
		if cfg.Auth.Configured() {
			fmt.Fprintln(out, successStyle.Render("✅ Credentials configured"))
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Credentials not configured"))
			fmt.Fprintln(out, "   Set auth.username and auth.password, or POCKET_CHAT_USERNAME and POCKET_CHAT_PASSWORD")
			failed = true
		}
		state := a.gate.CheckSession(ctx)
		if state.Present() {
			fmt.Fprintf(out, "%s\n", successStyle.Render(fmt.Sprintf("✅ Signed in as %s", state.Username)))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Session: %s (since %s)\n", state.SessionID, state.Since.Format(time.RFC3339))
			}
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in"))
		}
		fmt.Fprintln(out)

		// Step 4: Completion service
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking completion service..."))
		fmt.Fprintf(out, "   Provider: %s, model: %s\n", cfg.Completion.Provider, cfg.Completion.Model)
		if healthcheckVerbose && cfg.Completion.BaseURL != "" {
			fmt.Fprintf(out, "   Endpoint: %s\n", cfg.Completion.BaseURL)
		}
		if cfg.Completion.APIKey == "" {
			fmt.Fprintln(out, errorStyle.Render("❌ No API key configured"))
			failed = true
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ API key configured"))
			if healthcheckPing && !pingCompletion(ctx, out) {
				failed = true
			}
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if failed {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return errors.New("health check failed")
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// pingCompletion sends one request straight to the completer. Nothing is
// written to the transcript.
func pingCompletion(ctx context.Context, out io.Writer) bool {
	completer, err := internal.NewCompleter(ctx, cfg.Completion)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to create completion client:"), err)
		return false
	}
	start := time.Now()
	if _, err := completer.Complete(ctx, "ping"); err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Completion request failed:"), err)
		return false
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Completion service replied in %s", time.Since(start).Round(time.Millisecond))))
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "details", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckPing, "ping", false, "Send a test request to the completion service")
}
