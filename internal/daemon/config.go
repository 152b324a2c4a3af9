// Package daemon manages the Stride daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Store       StoreConfig       `toml:"store"`
	Forgiveness ForgivenessConfig `toml:"forgiveness"`
	Logging     LoggingConfig     `toml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	Metrics     bool     `toml:"metrics"`
}

// StoreConfig controls the SQLite store location.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// ForgivenessConfig controls the daily automatic streak-protection pass.
// RunAt is a local "HH:MM" wall-clock time in the reference Timezone.
type ForgivenessConfig struct {
	Enabled  bool   `toml:"enabled"`
	RunAt    string `toml:"run_at"`
	Timezone string `toml:"timezone"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	home := strideHome()
	return Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8640,
			CORSOrigins: []string{"*"},
			Metrics:     true,
		},
		Store: StoreConfig{
			Dir: home,
		},
		Forgiveness: ForgivenessConfig{
			Enabled:  true,
			RunAt:    "23:50",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(home, "stride.log"),
		},
	}
}

// LoadConfig reads config from ~/.stride/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(strideHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.stride/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(strideHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// strideHome returns the Stride data directory (~/.stride), honoring
// STRIDE_HOME for tests and containers.
func strideHome() string {
	if dir := os.Getenv("STRIDE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stride"
	}
	return filepath.Join(home, ".stride")
}
