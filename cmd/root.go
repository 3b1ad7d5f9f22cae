package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose        bool
	configPath     string
	storagePath    string
	storageBackend string
	version        string = "dev"
	commit         string = "unknown"
	date           string = "unknown"
)

var (
	cfg   *internal.Config
	paths internal.DataPaths
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pocket-chat",
	Short: "Chat with an AI completion service from your terminal",
	Long: `A single-user chat client for OpenAI-compatible completion services.

Every exchange is appended to a local transcript that survives restarts.
Only one request is in flight at a time; the transcript is saved in the
background after every change.

Quick Start:
  pocket-chat login                      # Sign in with the configured credentials
  pocket-chat chat                       # Start an interactive conversation
  pocket-chat send "hello"               # Send a single message
  pocket-chat history                    # Show the transcript
  pocket-chat export --format md         # Export the transcript as Markdown

Configuration is read from config.yaml in the user config directory, a .env
file, and POCKET_CHAT_* environment variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)

		detected, err := internal.DetectDataPaths()
		if err != nil {
			return fmt.Errorf("failed to detect data paths: %w", err)
		}
		paths = detected

		if err := internal.LoadDotEnv(".env", paths.EnvFile()); err != nil {
			return err
		}

		path, required := paths.ConfigFile(), false
		if configPath != "" {
			path, required = configPath, true
		}
		loaded, err := internal.LoadConfig(path, paths, required)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if storageBackend != "" {
			loaded.Storage.Backend = storageBackend
			if storagePath == "" && storageBackend == internal.BackendFile {
				loaded.Storage.Path = paths.SlotDir()
			}
		}
		if storagePath != "" {
			loaded.Storage.Path = storagePath
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		loaded.ApplyLogging(verbose)
		cfg = loaded
		internal.LogDebug("Using %s storage at %s", cfg.Storage.Backend, cfg.Storage.Path)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.SyncLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		internal.SyncLogger()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: user config directory)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (database file, or slot directory with --backend file)")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "backend", "", "Storage backend: sqlite or file")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
