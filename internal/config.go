package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config is the client configuration
type Config struct {
	Completion CompletionConfig `yaml:"completion"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       Credentials      `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig selects where the transcript and session live
type StorageConfig struct {
	Backend   string        `yaml:"backend"`
	Path      string        `yaml:"path"`
	Key       string        `yaml:"key"`
	SaveDelay time.Duration `yaml:"save_delay"`
}

// LoggingConfig controls the global logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig(paths DataPaths) *Config {
	return &Config{
		Completion: CompletionConfig{
			Provider: ProviderOpenAI,
			BaseURL:  DefaultBaseURL,
			Model:    DefaultModel,
			Timeout:  DefaultCompletionTimeout,
		},
		Storage: StorageConfig{
			Backend:   BackendSQLite,
			Path:      paths.DatabasePath(),
			Key:       DefaultTranscriptKey,
			SaveDelay: DefaultSaveDelay,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are skipped and variables that are already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		LogDebug("Loaded environment from %s", f)
	}
	return nil
}

// LoadConfig reads path over the defaults, then applies environment
// overrides. A missing file is only an error when required is true.
func LoadConfig(path string, paths DataPaths, required bool) (*Config, error) {
	cfg := DefaultConfig(paths)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ParseError{Source: "config", Key: path, Err: err}
		}
		LogDebug("Loaded config from %s", path)
	case errors.Is(err, os.ErrNotExist) && !required:
		LogDebug("No config file at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.fillDefaults(paths)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("POCKET_CHAT_PROVIDER", &c.Completion.Provider)
	str("POCKET_CHAT_BASE_URL", &c.Completion.BaseURL)
	str("POCKET_CHAT_MODEL", &c.Completion.Model)
	str("POCKET_CHAT_REGION", &c.Completion.Region)
	if err := dur("POCKET_CHAT_TIMEOUT", &c.Completion.Timeout); err != nil {
		return err
	}

	if c.Completion.APIKey == "" {
		switch c.Completion.Provider {
		case ProviderArk:
			str("ARK_API_KEY", &c.Completion.APIKey)
		default:
			str("OPENAI_API_KEY", &c.Completion.APIKey)
		}
	}
	str("POCKET_CHAT_API_KEY", &c.Completion.APIKey)

	str("POCKET_CHAT_STORAGE", &c.Storage.Backend)
	str("POCKET_CHAT_STORAGE_PATH", &c.Storage.Path)
	if err := dur("POCKET_CHAT_SAVE_DELAY", &c.Storage.SaveDelay); err != nil {
		return err
	}

	str("POCKET_CHAT_USERNAME", &c.Auth.Username)
	str("POCKET_CHAT_PASSWORD", &c.Auth.Password)

	str("POCKET_CHAT_LOG_LEVEL", &c.Logging.Level)
	str("POCKET_CHAT_LOG_FORMAT", &c.Logging.Format)
	return nil
}

// fillDefaults restores defaults the config file blanked out
func (c *Config) fillDefaults(paths DataPaths) {
	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderOpenAI
	}
	if c.Completion.Timeout == 0 {
		c.Completion.Timeout = DefaultCompletionTimeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultTranscriptKey
	}
	switch {
	case c.Storage.Backend == BackendFile && (c.Storage.Path == "" || c.Storage.Path == paths.DatabasePath()):
		c.Storage.Path = paths.SlotDir()
	case c.Storage.Path == "":
		c.Storage.Path = paths.DatabasePath()
	}
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	switch c.Completion.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("unsupported completion provider: %s (supported: %s, %s)", c.Completion.Provider, ProviderOpenAI, ProviderArk)
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive, got %s", c.Completion.Timeout)
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: %s, %s)", c.Storage.Backend, BackendSQLite, BackendFile)
	}
	if c.Storage.SaveDelay < 0 {
		return fmt.Errorf("save delay must not be negative, got %s", c.Storage.SaveDelay)
	}
	if strings.ContainsAny(c.Storage.Key, `/\`) || c.Storage.Key == SessionSlot {
		return fmt.Errorf("invalid transcript key %q", c.Storage.Key)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s (supported: console, json)", c.Logging.Format)
	}
	return nil
}

// ApplyLogging configures the global logger from c
func (c *Config) ApplyLogging(verbose bool) {
	if c.Logging.Format != "" {
		SetLogFormat(c.Logging.Format)
	}
	if verbose {
		SetVerbose(true)
		return
	}
	SetLogLevel(ParseLogLevel(c.Logging.Level))
}

// OpenKVStore opens the configured storage backend
func OpenKVStore(cfg StorageConfig) (KVStore, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFileKV(cfg.Path), nil
	case BackendSQLite, "":
		kv, err := OpenSQLiteKV(cfg.Path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
