package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginCommand(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantOut    string
		wantReason string
	}{
		{
			name:    "flags",
			args:    []string{"-u", "alice", "-p", "secret"},
			wantOut: "Signed in as alice",
		},
		{
			name:    "prompted",
			stdin:   "alice\nsecret\n",
			wantOut: "Signed in as alice",
		},
		{
			name:       "wrong password",
			args:       []string{"-u", "alice", "-p", "nope"},
			wantReason: "Invalid username or password",
		},
		{
			name:       "case matters",
			args:       []string{"-u", "Alice", "-p", "secret"},
			wantReason: "Invalid username or password",
		},
		{
			name:       "missing fields",
			wantReason: "Please fill in both fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)

			stdout, _, err := executeCommand(t, tt.stdin, append([]string{"login"}, tt.args...)...)
			if tt.wantReason != "" {
				var authErr *internal.AuthError
				require.True(t, errors.As(err, &authErr), "error = %v", err)
				assert.Equal(t, tt.wantReason, authErr.Reason)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.wantOut)
		})
	}
}

func TestLoginCommand_AlreadySignedIn(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	stdout, _, err := executeCommand(t, "", "login")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Already signed in as alice")
}

func TestLoginCommand_NotConfigured(t *testing.T) {
	newTestEnv(t)
	t.Setenv("POCKET_CHAT_USERNAME", "")
	t.Setenv("POCKET_CHAT_PASSWORD", "")

	_, _, err := executeCommand(t, "", "login", "-u", "alice", "-p", "secret")
	assert.ErrorIs(t, err, internal.ErrAuthNotConfigured)
}

func TestLogoutCommand(t *testing.T) {
	t.Run("not signed in", func(t *testing.T) {
		newTestEnv(t)

		stdout, _, err := executeCommand(t, "", "logout")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Not signed in")
	})

	t.Run("cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		env.signIn(t)

		stdout, _, err := executeCommand(t, "n\n", "logout")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Are you sure you want to log out?")
		assert.Contains(t, stdout, "Logout cancelled")

		_, _, err = executeCommand(t, "", "history")
		assert.NoError(t, err, "session should survive a cancelled logout")
	})

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		env.signIn(t)

		stdout, _, err := executeCommand(t, "y\n", "logout")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Signed out")

		_, _, err = executeCommand(t, "", "history")
		assert.ErrorIs(t, err, internal.ErrNotSignedIn)
	})

	t.Run("yes flag", func(t *testing.T) {
		env := newTestEnv(t)
		env.signIn(t)

		stdout, _, err := executeCommand(t, "", "logout", "--yes")
		require.NoError(t, err)
		assert.NotContains(t, stdout, "Are you sure")
		assert.Contains(t, stdout, "Signed out")
	})
}

func TestLogoutCommand_KeepsTranscript(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, _, err := executeCommand(t, "", "send", "hello")
	require.NoError(t, err)

	_, _, err = executeCommand(t, "", "logout", "-y")
	require.NoError(t, err)

	env.signIn(t)
	stdout, _, err := executeCommand(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "You: hello")
	assert.Contains(t, stdout, "AI: Hi there")
}

func TestPromptSecret(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		src := strings.NewReader("s3cret\n")
		var out bytes.Buffer

		got, err := promptSecret(src, bufio.NewReader(src), &out, "Password")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", got)
		assert.Equal(t, "Password: ", out.String())
	})

	t.Run("pipe is not a terminal", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer r.Close()
		_, err = w.WriteString("from pipe\n")
		require.NoError(t, err)
		require.NoError(t, w.Close())

		var out bytes.Buffer
		got, err := promptSecret(r, bufio.NewReader(r), &out, "Password")
		require.NoError(t, err)
		assert.Equal(t, "from pipe", got)
	})
}
