// Package config resolves file paths and the analysis profile for the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shellsentry/shellsentry/internal/safety"
)

const (
	DefaultConfigDir = ".shellsentry"
	DefaultPackFile  = "behavior.yaml"
	DefaultLogFile   = "audit.jsonl"
)

// Config is the resolved CLI configuration. Paths default into the user's
// config directory; the profile names a validator preset.
type Config struct {
	ConfigDir string
	PackPath  string
	LogPath   string
	Profile   string
	Validator safety.Config
}

// Load resolves paths and maps the profile name onto a validator preset.
// Empty paths fall back to ~/.shellsentry; an empty profile means default.
func Load(packPath, logPath, profile string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	validator, err := presetFor(profile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir: configDir,
		Profile:   profile,
		Validator: validator,
	}

	if packPath != "" {
		cfg.PackPath = packPath
	} else {
		cfg.PackPath = filepath.Join(configDir, DefaultPackFile)
	}

	if logPath != "" {
		cfg.LogPath = logPath
	} else {
		cfg.LogPath = filepath.Join(configDir, DefaultLogFile)
	}

	return cfg, nil
}

func presetFor(profile string) (safety.Config, error) {
	switch profile {
	case "", "default":
		return safety.DefaultConfig(), nil
	case "production":
		return safety.ProductionConfig(), nil
	case "development":
		return safety.DevelopmentConfig(), nil
	default:
		return safety.Config{}, fmt.Errorf("unknown profile %q (want default, production, or development)", profile)
	}
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
