package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "pocket-chat"

// DataPaths holds the per-user locations the client reads and writes
type DataPaths struct {
	ConfigDir string // holds config.yaml and .env
	DataDir   string // holds the transcript store
}

// DetectDataPaths resolves the config and data directories for the current OS
func DetectDataPaths() (DataPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		base := filepath.Join(home, "Library/Application Support", appDirName)
		return DataPaths{ConfigDir: base, DataDir: base}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local/share")
		}
		return DataPaths{
			ConfigDir: filepath.Join(configHome, appDirName),
			DataDir:   filepath.Join(dataHome, appDirName),
		}, nil
	default:
		return DataPaths{}, fmt.Errorf("unsupported OS: %s (only macOS, Linux and the BSDs are supported)", runtime.GOOS)
	}
}

// ConfigFile returns the default config file path
func (p DataPaths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// EnvFile returns the default .env path
func (p DataPaths) EnvFile() string {
	return filepath.Join(p.ConfigDir, ".env")
}

// DatabasePath returns the default SQLite store path
func (p DataPaths) DatabasePath() string {
	return filepath.Join(p.DataDir, "pocket-chat.db")
}

// SlotDir returns the default directory for the file store
func (p DataPaths) SlotDir() string {
	return filepath.Join(p.DataDir, "slots")
}

// ConfigExists checks if the config file exists
func (p DataPaths) ConfigExists() bool {
	_, err := os.Stat(p.ConfigFile())
	return err == nil
}
