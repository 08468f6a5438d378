// Package config resolves where ledgerkeep keeps its data.
// It loads settings from environment variables, a .env file, and an
// optional YAML settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appDirName = "ledgerkeep"

// Environment variables honored by Load.
const (
	EnvDataDir    = "LEDGERKEEP_DATA_DIR"
	EnvConfigFile = "LEDGERKEEP_CONFIG"
	EnvXDGData    = "XDG_DATA_HOME"
	EnvHome       = "HOME"
)

// ErrNoDataDir is returned when no data directory can be resolved: the
// explicit override, XDG_DATA_HOME, and HOME are all unset.
var ErrNoDataDir = errors.New("could not resolve data directory: LEDGERKEEP_DATA_DIR, XDG_DATA_HOME and HOME are all unset")

// Config represents the application configuration.
type Config struct {
	// DataDir is the directory holding the database file and the
	// statements store.
	DataDir string `yaml:"data_dir"`
}

// Load loads configuration. A .env file in the working directory is folded
// into the environment first (missing file is fine). If LEDGERKEEP_CONFIG
// names a YAML settings file its data_dir takes precedence; otherwise the
// data directory falls back from LEDGERKEEP_DATA_DIR to
// $XDG_DATA_HOME/ledgerkeep to $HOME/.local/share/ledgerkeep.
func Load() (*Config, error) {
	// Try to load .env from current directory (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv(EnvConfigFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	}

	if cfg.DataDir == "" {
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dataDir
	}

	return cfg, nil
}

func resolveDataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}
	if xdgDataHome := os.Getenv(EnvXDGData); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appDirName), nil
	}
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, ".local", "share", appDirName), nil
	}
	return "", ErrNoDataDir
}
