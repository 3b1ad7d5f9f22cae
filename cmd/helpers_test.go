package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/iksnae/pocket-chat/testutil"
	"github.com/spf13/cobra"
)

// syncBuffer is a bytes.Buffer safe for the chat goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	dir    string
	server *testutil.FakeCompletionServer
}

// newTestEnv points every path and setting at a temp dir and a fake
// completion server replying "Hi there"
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{
		"OPENAI_API_KEY", "ARK_API_KEY",
		"POCKET_CHAT_PROVIDER", "POCKET_CHAT_MODEL", "POCKET_CHAT_REGION", "POCKET_CHAT_TIMEOUT",
		"POCKET_CHAT_STORAGE", "POCKET_CHAT_STORAGE_PATH",
		"POCKET_CHAT_LOG_LEVEL", "POCKET_CHAT_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	server := testutil.NewFakeCompletionServer(t, "Hi there")
	t.Setenv("POCKET_CHAT_BASE_URL", server.URL)
	t.Setenv("POCKET_CHAT_API_KEY", "test-key")
	t.Setenv("POCKET_CHAT_USERNAME", "alice")
	t.Setenv("POCKET_CHAT_PASSWORD", "secret")
	t.Setenv("POCKET_CHAT_SAVE_DELAY", "0s")

	return &testEnv{dir: dir, server: server}
}

// signIn runs a successful login
func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	if _, _, err := executeCommand(t, "", "login", "-u", "alice", "-p", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

// resetFlags restores every flag variable between runs of rootCmd
func resetFlags() {
	verbose = false
	configPath = ""
	storagePath = ""
	storageBackend = ""
	loginUsername = ""
	loginPassword = ""
	logoutYes = false
	historyLimit = 0
	format = "jsonl"
	outputPath = ""
	healthcheckVerbose = false
	healthcheckPing = false
	inspectFormat = "text"
	inspectSampleRows = 3

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// executeCommand runs rootCmd with args and stdin and returns what it wrote
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr syncBuffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
