// Package paths resolves configuration and database file locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDBName is the database file used when no override is active,
// resolved relative to the working directory.
const DefaultDBName = "reshape.db"

// Environment variable names for location overrides.
const (
	EnvConfigDir = "RESHAPE_CONFIG_DIR"
	EnvDB        = "RESHAPE_DB"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/reshape (fallback ~/.config/reshape)
// macOS:   ~/Library/Application Support/reshape
// Windows: %APPDATA%/reshape
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "reshape"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "reshape"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "reshape"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > RESHAPE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDB returns the database file path following the precedence
// chain: flag > configYAMLValue > RESHAPE_DB env > $(CWD)/reshape.db.
func ResolveDB(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDB); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDBName), nil
}
