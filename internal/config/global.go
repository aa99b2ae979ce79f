package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/citx/config.yml.
type GlobalConfig struct {
	ModelPath        string `yaml:"model_path,omitempty"`
	Device           string `yaml:"device,omitempty"`
	SectionThreshold *int   `yaml:"section_threshold,omitempty"`
	Workers          int    `yaml:"workers,omitempty"`
	LogLevel         string `yaml:"log_level,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citx"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override the global config.
const (
	EnvModel     = "CITX_MODEL"
	EnvDevice    = "CITX_DEVICE"
	EnvThreshold = "CITX_SECTION_THRESHOLD"
	EnvWorkers   = "CITX_WORKERS"
	EnvLogLevel  = "CITX_LOG_LEVEL"
	EnvRoot      = "CITX_ROOT"
)

// ConfigKeys lists the keys accepted by Get and Set, in display order.
var ConfigKeys = []string{"model_path", "device", "section_threshold", "workers", "log_level"}

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citx/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.ModelPath != "" {
		cfg.ModelPath = ExpandPath(cfg.ModelPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// SaveGlobalConfig writes cfg to the global config path and refreshes the
// cache.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}

	globalConfigCache = cfg
	return nil
}

// Get returns the string form of a config key.
func (c *GlobalConfig) Get(key string) (string, error) {
	switch key {
	case "model_path":
		return c.ModelPath, nil
	case "device":
		return c.Device, nil
	case "section_threshold":
		if c.SectionThreshold == nil {
			return "", nil
		}
		return strconv.Itoa(*c.SectionThreshold), nil
	case "workers":
		if c.Workers == 0 {
			return "", nil
		}
		return strconv.Itoa(c.Workers), nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key: %s (valid: %v)", key, ConfigKeys)
	}
}

// Set parses and stores a config value.
func (c *GlobalConfig) Set(key, value string) error {
	switch key {
	case "model_path":
		c.ModelPath = ExpandPath(value)
	case "device":
		c.Device = value
	case "section_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("section_threshold must be an integer: %w", err)
		}
		c.SectionThreshold = &n
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("workers must be a positive integer, got %q", value)
		}
		c.Workers = n
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: %v)", key, ConfigKeys)
	}
	return nil
}

// GetConfigValue returns the environment variable value if set, otherwise
// the config value.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}
