// Package paths resolves the configuration and data directories of
// phpcr-migrate.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory name used below the platform base
// directories.
const AppDirName = "phpcr-migrate"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PHPCR_MIGRATE_CONFIG_DIR"
	EnvDataDir   = "PHPCR_MIGRATE_DATA_DIR"
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
// Linux:   $XDG_CONFIG_HOME/phpcr-migrate (fallback ~/.config/phpcr-migrate)
// macOS:   ~/Library/Application Support/phpcr-migrate
// Windows: %APPDATA%/phpcr-migrate
func DefaultConfigDir() (string, error) {
	return platformAppDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
// JSONL exports and the default SQLite target live here.
//
// Linux:   $XDG_DATA_HOME/phpcr-migrate (fallback ~/.local/share/phpcr-migrate)
// macOS and Windows: same as the config dir.
func DefaultDataDir() (string, error) {
	return platformAppDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformAppDir(xdgEnv, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppDirName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > PHPCR_MIGRATE_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml data_dir > PHPCR_MIGRATE_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}
