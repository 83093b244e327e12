// Package config provides application configuration management for crosscli.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfigDir overrides the config directory, mainly for tests.
const EnvConfigDir = "CROSSCLI_CONFIG_DIR"

// Config holds the crosscli configuration, stored as TOML in
// ~/.crosscli/config.toml.
type Config struct {
	Language string      `toml:"language"` // BCP 47 tag, e.g. "en", "zh-Hans"
	Query    QueryConfig `toml:"query"`
	Scan     ScanConfig  `toml:"scan"`
}

// QueryConfig holds defaults for session queries.
type QueryConfig struct {
	Limit  int    `toml:"limit"`  // default result cap (0 = unlimited)
	Format string `toml:"format"` // summary, timeline, detailed, context
}

// ScanConfig holds scan and cache settings.
type ScanConfig struct {
	Adapters []string `toml:"adapters"` // adapter filter (empty = all)
	Timeout  string   `toml:"timeout"`  // per-adapter scan timeout, e.g. "10s"
	CacheTTL string   `toml:"cache_ttl"`
}

// TimeoutDuration returns the parsed scan timeout (default: 10s).
func (c ScanConfig) TimeoutDuration() time.Duration {
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			return d
		}
	}
	return 10 * time.Second
}

// CacheTTLDuration returns the parsed cache TTL (default: 1m).
func (c ScanConfig) CacheTTLDuration() time.Duration {
	if c.CacheTTL != "" {
		if d, err := time.ParseDuration(c.CacheTTL); err == nil {
			return d
		}
	}
	return time.Minute
}

// Dir returns the path to the .crosscli directory.
func Dir() (string, error) {
	if v := os.Getenv(EnvConfigDir); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".crosscli"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from ~/.crosscli/config.toml. A missing
// file yields defaults without creating anything on disk.
func Load() (Config, error) {
	configPath, err := Path()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return Default(), nil
	} else if err != nil {
		return Config{}, err
	}

	// Start from defaults so missing keys keep their defaults.
	config := Default()
	if err := toml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return config, nil
}

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		Language: "",
		Query: QueryConfig{
			Limit:  20,
			Format: "summary",
		},
		Scan: ScanConfig{
			Adapters: []string{},
			Timeout:  "10s",
			CacheTTL: "1m",
		},
	}
}

// Save saves the configuration to ~/.crosscli/config.toml.
func Save(config Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(config)
}
