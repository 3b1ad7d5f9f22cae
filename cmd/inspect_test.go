package cmd

import (
	"encoding/json"
	"testing"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeSlot(t *testing.T) {
	transcript, err := internal.EncodeTranscript(internal.CreateTestTranscript(4))
	require.NoError(t, err)

	tests := []struct {
		name         string
		key          string
		data         string
		wantKind     string
		wantMessages int
		wantUser     string
		wantSample   int
		wantErr      bool
	}{
		{name: "transcript", key: "messages", data: string(transcript), wantKind: "transcript", wantMessages: 4, wantSample: 2},
		{name: "corrupt transcript", key: "messages", data: "{oops", wantKind: "transcript", wantErr: true},
		{name: "session", key: internal.SessionSlot, data: `{"id":"x","username":"alice"}`, wantKind: "session", wantUser: "alice"},
		{name: "other slot", key: "other", data: "anything", wantKind: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := describeSlot(tt.key, []byte(tt.data), "messages", 2)
			assert.Equal(t, tt.wantKind, info.Kind)
			assert.Equal(t, len(tt.data), info.Bytes)
			assert.Equal(t, tt.wantMessages, info.Messages)
			assert.Equal(t, tt.wantUser, info.Username)
			assert.Len(t, info.Sample, tt.wantSample)
			assert.Equal(t, tt.wantErr, info.Error != "")
		})
	}
}

func TestInspectCommand(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	_, _, err := executeCommand(t, "", "send", "hello")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "", "inspect")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Found 2 slot(s)")
	assert.Contains(t, stdout, "Slot: messages (transcript")
	assert.Contains(t, stdout, "Username: alice")
	assert.Contains(t, stdout, "user: hello")
}

func TestInspectCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	stdout, _, err := executeCommand(t, "", "inspect", "--format", "json")
	require.NoError(t, err)

	var got struct {
		Backend string     `json:"backend"`
		Slots   []slotInfo `json:"slots"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, internal.BackendSQLite, got.Backend)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, "session", got.Slots[0].Kind)
}

func TestInspectCommand_BadFormat(t *testing.T) {
	newTestEnv(t)

	_, _, err := executeCommand(t, "", "inspect", "--format", "xml")
	assert.Error(t, err)
}
