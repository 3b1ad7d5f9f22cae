package cmd

import (
	"net/http"
	"testing"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCommand_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := executeCommand(t, "", "send", "hello")
	require.ErrorIs(t, err, internal.ErrNotSignedIn)
	assert.Contains(t, err.Error(), "pocket-chat login")
	assert.Empty(t, env.server.Requests(), "no request may be sent without a session")
}

func TestSendCommand(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	stdout, _, err := executeCommand(t, "", "send", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "AI: Hi there\n", stdout)

	reqs := env.server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer test-key", reqs[0].Authorization)
	assert.Equal(t, internal.DefaultModel, reqs[0].Model)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, "user", reqs[0].Messages[0].Role)
	assert.Equal(t, "hello world", reqs[0].Messages[0].Content)
}

func TestSendCommand_ServiceFailure(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	env.server.SetStatus(http.StatusInternalServerError)

	stdout, _, err := executeCommand(t, "", "send", "hello")
	require.NoError(t, err)
	assert.Equal(t, "AI: "+internal.ErrorNotice+"\n", stdout)

	// the failure is part of the transcript
	stdout, _, err = executeCommand(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "You: hello\nAI: "+internal.ErrorNotice)
}

func TestSendCommand_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, _, err := executeCommand(t, "", "send", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is empty")
	assert.Empty(t, env.server.Requests())
}

func TestSendCommand_AppendsToHistory(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, _, err := executeCommand(t, "", "send", "first")
	require.NoError(t, err)
	env.server.SetReply("Second reply")
	_, _, err = executeCommand(t, "", "send", "second")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Showing 4 of 4 message(s)")
	assert.Contains(t, stdout, "You: first\nAI: Hi there\nYou: second\nAI: Second reply\n")
}
