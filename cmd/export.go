package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/iksnae/pocket-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format     string
	outputPath string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the transcript to a file",
	Long: `Export the stored transcript to one of several formats (jsonl, md, yaml, json).

Without --out the export is written to stdout. A directory given to --out
receives a file named transcript.<ext>.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
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

		conv := internal.NewConversation(a.store, a.store.Load(ctx), time.Now())
		conv.Metadata.Username = state.Username

		if outputPath == "" || outputPath == "-" {
			return exporter.Export(conv, cmd.OutOrStdout())
		}

		target := outputPath
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, "transcript."+exporter.Extension())
		} else if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		file, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", target, err)
		}
		if err := exporter.Export(conv, file); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to export transcript: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close file %s: %w", target, err)
		}

		printer(cmd).Success(fmt.Sprintf("Export complete: %d message(s) written to %s", conv.Metadata.MessageCount, target))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file or directory (default: stdout)")
}
