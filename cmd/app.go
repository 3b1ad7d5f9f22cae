package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app bundles the collaborators a command needs
type app struct {
	kv    internal.KVStore
	store *internal.TranscriptStore
	gate  *internal.Gate
}

func openApp() (*app, error) {
	kv, err := internal.OpenKVStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &app{
		kv:    kv,
		store: internal.NewTranscriptStore(kv, cfg.Storage.Key),
		gate:  internal.NewGate(kv, cfg.Auth),
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// requireSession returns an error telling the user to sign in when no
// session is present
func (a *app) requireSession(ctx context.Context) (internal.AuthState, error) {
	state, err := a.gate.Require(ctx)
	if err != nil {
		return state, fmt.Errorf("%w: run 'pocket-chat login' first", err)
	}
	return state, nil
}

func (a *app) newEngine(ctx context.Context) (*internal.Engine, error) {
	completer, err := internal.NewCompleter(ctx, cfg.Completion)
	if err != nil {
		return nil, err
	}
	return internal.NewEngine(a.store, completer, internal.WithSaveDelay(cfg.Storage.SaveDelay)), nil
}

func printer(cmd *cobra.Command) *internal.Printer {
	return internal.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// confirm asks a yes/no question on out and reads the answer from in
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// prompt reads one line after printing label
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads a line without echo when src is a terminal and falls
// back to prompt otherwise
func promptSecret(src io.Reader, in *bufio.Reader, out io.Writer, label string) (string, error) {
	f, ok := src.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(in, out, label)
	}

	fmt.Fprintf(out, "%s: ", label)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
