package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/pocket-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) DataPaths {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	return DataPaths{ConfigDir: filepath.Join(dir, "config"), DataDir: filepath.Join(dir, "data")}
}

// clearEnv unsets every variable LoadConfig reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"POCKET_CHAT_PROVIDER", "POCKET_CHAT_BASE_URL", "POCKET_CHAT_MODEL", "POCKET_CHAT_REGION",
		"POCKET_CHAT_TIMEOUT", "POCKET_CHAT_API_KEY", "OPENAI_API_KEY", "ARK_API_KEY",
		"POCKET_CHAT_STORAGE", "POCKET_CHAT_STORAGE_PATH", "POCKET_CHAT_SAVE_DELAY",
		"POCKET_CHAT_USERNAME", "POCKET_CHAT_PASSWORD", "POCKET_CHAT_LOG_LEVEL", "POCKET_CHAT_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	paths := testPaths(t)

	cfg, err := LoadConfig(paths.ConfigFile(), paths, false)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Completion.Provider)
	assert.Equal(t, DefaultBaseURL, cfg.Completion.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Completion.Model)
	assert.Equal(t, 60*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, paths.DatabasePath(), cfg.Storage.Path)
	assert.Equal(t, DefaultTranscriptKey, cfg.Storage.Key)
	assert.Equal(t, 200*time.Millisecond, cfg.Storage.SaveDelay)
	assert.False(t, cfg.Auth.Configured())
}

func TestLoadConfigRequiredMissing(t *testing.T) {
	clearEnv(t)
	paths := testPaths(t)

	_, err := LoadConfig(paths.ConfigFile(), paths, true)
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	paths := testPaths(t)
	testutil.WriteFile(t, paths.ConfigDir, "config.yaml", []byte(`
completion:
  model: gpt-4o-mini
  timeout: 15s
  api_key: from-file
storage:
  backend: file
  save_delay: 50ms
auth:
  username: alice
  password: s3cret
logging:
  level: debug
  format: json
`))

	cfg, err := LoadConfig(paths.ConfigFile(), paths, true)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, 15*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, "from-file", cfg.Completion.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.Completion.BaseURL, "unset fields keep defaults")
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, paths.SlotDir(), cfg.Storage.Path, "file backend gets the slot directory")
	assert.Equal(t, 50*time.Millisecond, cfg.Storage.SaveDelay)
	assert.True(t, cfg.Auth.Configured())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigFileBackendDefaultPath(t *testing.T) {
	clearEnv(t)
	paths := testPaths(t)
	testutil.WriteFile(t, paths.ConfigDir, "config.yaml", []byte("storage:\n  backend: file\n  path: \"\"\n"))

	cfg, err := LoadConfig(paths.ConfigFile(), paths, true)
	require.NoError(t, err)
	assert.Equal(t, paths.SlotDir(), cfg.Storage.Path)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	paths := testPaths(t)
	testutil.WriteFile(t, paths.ConfigDir, "config.yaml", []byte("completion:\n  model: from-file\n"))

	t.Setenv("POCKET_CHAT_MODEL", "from-env")
	t.Setenv("POCKET_CHAT_TIMEOUT", "5s")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("POCKET_CHAT_USERNAME", "bob")
	t.Setenv("POCKET_CHAT_PASSWORD", "pw")
	t.Setenv("POCKET_CHAT_STORAGE", "file")
	t.Setenv("POCKET_CHAT_STORAGE_PATH", "/tmp/slots")

	cfg, err := LoadConfig(paths.ConfigFile(), paths, true)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Completion.Model)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, "sk-env", cfg.Completion.APIKey)
	assert.Equal(t, Credentials{Username: "bob", Password: "pw"}, cfg.Auth)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/slots", cfg.Storage.Path)
}

func TestApplyEnvAPIKeyPrecedence(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":      "sk-openai",
		"ARK_API_KEY":         "ark-key",
		"POCKET_CHAT_API_KEY": "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig(DataPaths{})
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "sk-openai", cfg.Completion.APIKey)

	cfg = DefaultConfig(DataPaths{})
	cfg.Completion.Provider = ProviderArk
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "ark-key", cfg.Completion.APIKey)

	cfg = DefaultConfig(DataPaths{})
	cfg.Completion.APIKey = "from-file"
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "from-file", cfg.Completion.APIKey, "provider key env does not override the file")

	env["POCKET_CHAT_API_KEY"] = "explicit"
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "explicit", cfg.Completion.APIKey)
}

func TestApplyEnvBadDuration(t *testing.T) {
	cfg := DefaultConfig(DataPaths{})
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "POCKET_CHAT_TIMEOUT" {
			return "soon", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "ark provider", mutate: func(c *Config) { c.Completion.Provider = ProviderArk }},
		{name: "unknown provider", mutate: func(c *Config) { c.Completion.Provider = "smoke-signals" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Completion.Timeout = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.Storage.SaveDelay = -time.Second }, wantErr: true},
		{name: "zero delay", mutate: func(c *Config) { c.Storage.SaveDelay = 0 }},
		{name: "key collides with session", mutate: func(c *Config) { c.Storage.Key = SessionSlot }, wantErr: true},
		{name: "key with slash", mutate: func(c *Config) { c.Storage.Key = "a/b" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(DataPaths{DataDir: "/tmp"})
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := testutil.CreateTempDir(t)
	envFile := testutil.WriteFile(t, dir, ".env", []byte("POCKET_CHAT_USERNAME=dotenv-user\nPOCKET_CHAT_PASSWORD=dotenv-pass\n"))
	t.Setenv("POCKET_CHAT_PASSWORD", "already-set")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	t.Cleanup(func() { os.Unsetenv("POCKET_CHAT_USERNAME") })

	assert.Equal(t, "dotenv-user", os.Getenv("POCKET_CHAT_USERNAME"))
	assert.Equal(t, "already-set", os.Getenv("POCKET_CHAT_PASSWORD"), "existing variables win")
}

func TestOpenKVStore(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	kv, err := OpenKVStore(StorageConfig{Backend: BackendFile, Path: filepath.Join(dir, "slots")})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)
	require.NoError(t, kv.Close())

	kv, err = OpenKVStore(StorageConfig{Backend: BackendSQLite, Path: filepath.Join(dir, "chat.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, kv.Close())

	_, err = OpenKVStore(StorageConfig{Backend: "tape"})
	assert.Error(t, err)
}
