/**
 * Configuration Definitions.
 *
 * Defines the configuration structures for the application: logging,
 * network, display and privacy settings.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LogLevel is the configured verbosity of the stdlib logger.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// LoggingConfig holds the logging destination and verbosity settings.
// They are stored but not applied: the stdlib logger keeps its defaults.
type LoggingConfig struct {
	Level    LogLevel `json:"level"`
	FilePath string   `json:"file_path,omitempty"`
}

// NetworkConfig controls which interfaces are captured (an empty list
// means every usable interface) and whether reverse DNS runs. EntryTTLMs
// is stored but not read: the snapshot view reaps idle entries with its
// fixed DefaultEntryTTL.
type NetworkConfig struct {
	Interfaces []string `json:"interfaces"`
	ReverseDNS bool     `json:"reverse_dns"`
	EntryTTLMs uint64   `json:"entry_ttl"`
}

// DisplayConfig holds display settings. TickRateMs sets how often the
// snapshotter refreshes; the other fields are stored but not read (the
// overview always reports the top 10 of each query, as totals).
type DisplayConfig struct {
	TopRemoteHosts  uint   `json:"top_remote_hosts"`
	ConnectionCount uint   `json:"connection_count"`
	TickRateMs      uint64 `json:"tick_rate"`
	ShowBandwidth   bool   `json:"show_bandwidth"`
}

// PrivacyConfig holds redaction flags for enrichment metadata. They are
// stored but not read; the CLI report prints hostnames and country codes
// unredacted.
type PrivacyConfig struct {
	HidePrivateIPInfo bool `json:"hide_private_ip_info"`
	HidePublicIPInfo  bool `json:"hide_public_ip_info"`
}

// Config is the full on-disk configuration document (spec §6).
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Network NetworkConfig `json:"network"`
	Display DisplayConfig `json:"display"`
	Privacy PrivacyConfig `json:"privacy"`
}

// Dir returns the user config directory, ~/.ntap.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: no home directory: %w", err)
	}
	return filepath.Join(home, ".ntap"), nil
}

// Path returns the config file path, ~/.ntap/ntap-config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ntap-config.json"), nil
}

// Load reads the config file at path, writing defaults if it doesn't
// exist. A malformed file falls back to defaults without being
// touched on disk (spec §6: "malformed file -> defaults used, file
// untouched").
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Defaults()
		if werr := writeConfig(path, cfg); werr != nil {
			return cfg, fmt.Errorf("config: write defaults: %w", werr)
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Defaults(), nil
	}
	return cfg, nil
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
