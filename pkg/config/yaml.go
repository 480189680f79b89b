package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration and runtime directories
const AppName = "drivebridge"

// configFile is the config path relative to an XDG config directory
var configFile = filepath.Join(AppName, "config.yaml")

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the per-user configuration file path
// ($XDG_CONFIG_HOME/drivebridge/config.yaml)
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, configFile)
}

// LoadDefault loads the first config file found in the XDG config directories.
// If there is none, returns the default configuration.
func LoadDefault() (*Config, error) {
	path, err := xdg.SearchConfigFile(configFile)
	if err != nil {
		return Default(), nil
	}

	return LoadFromFile(path)
}
