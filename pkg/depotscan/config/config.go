package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAge     int  `mapstructure:"max_age"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// SteamConfig controls install-root discovery.
type SteamConfig struct {
	// Paths are extra install roots checked before the platform defaults.
	Paths []string `mapstructure:"paths"`

	// Platform overrides runtime detection (windows, darwin, linux).
	Platform string `mapstructure:"platform"`

	// Registry enables the Windows registry lookup.
	Registry bool `mapstructure:"registry"`
}

// OutputConfig controls formatting and export.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// BulkConfig controls batch processing of installed apps.
type BulkConfig struct {
	Width int           `mapstructure:"width"`
	Pause time.Duration `mapstructure:"pause"`
}

// StoreConfig controls the remote metadata lookup.
type StoreConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
}

// CacheConfig controls the metadata cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// HistoryConfig controls the operation history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Steam   SteamConfig   `mapstructure:"steam"`
	Output  OutputConfig  `mapstructure:"output"`
	Bulk    BulkConfig    `mapstructure:"bulk"`
	Store   StoreConfig   `mapstructure:"store"`
	Cache   CacheConfig   `mapstructure:"cache"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("steam.paths", []string{})
	v.SetDefault("steam.platform", "")
	v.SetDefault("steam.registry", true)

	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.dir", "")

	v.SetDefault("bulk.width", DefaultBulkWidth)
	v.SetDefault("bulk.pause", DefaultBulkPause)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.base_url", DefaultStoreBaseURL)
	v.SetDefault("store.timeout", DefaultStoreTimeout)
	v.SetDefault("store.rate", DefaultStoreRate)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "") // Empty means DefaultCachePath()
	v.SetDefault("cache.ttl", DefaultCacheTTL)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means DefaultHistoryPath()
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size_mb", 10)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.compress", false)
	v.SetDefault("logging.components", map[string]string{
		"locator": "info",
		"library": "info",
		"scanner": "info",
		"store":   "info",
	})
}

// Configure points v at the config search paths and environment.
// A non-empty file overrides the search paths.
func Configure(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/depotscan/config.yaml
//   - $HOME/.config/depotscan/config.yaml
//
// Environment variables are prefixed with DEPOTSCAN_ (e.g., DEPOTSCAN_OUTPUT_FORMAT).
func Load() (*Config, error) {
	v := viper.New()
	Configure(v, "")
	return FromViper(v)
}

// FromViper reads the config file (if any) into v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i, p := range cfg.Steam.Paths {
		expanded, err := ExpandPath(p)
		if err != nil {
			return nil, err
		}
		cfg.Steam.Paths[i] = expanded
	}
	for _, p := range []*string{&cfg.Output.Dir, &cfg.Cache.Path, &cfg.History.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	if cfg.Bulk.Width < 1 {
		cfg.Bulk.Width = DefaultBulkWidth
	}
	if cfg.Bulk.Pause < 0 {
		cfg.Bulk.Pause = DefaultBulkPause
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# depotscan configuration

steam:
  # Extra Steam install roots, checked before the platform defaults
  paths: []
  # Override platform detection: windows, darwin, linux
  platform: ""
  # Look up SteamPath in the Windows registry
  registry: true

output:
  # pretty, plain, json, jsonl, yaml, tsv, csv, markdown, template, lua
  format: %s
  # Export directory (empty means the current directory)
  dir: ""

bulk:
  width: %d
  pause: %s

store:
  enabled: true
  base_url: %s
  timeout: %s
  rate: %g

cache:
  enabled: true
  # Empty means $XDG_CACHE_HOME/depotscan/meta
  path: ""
  ttl: %s

history:
  enabled: true
  # Empty means $XDG_DATA_HOME/depotscan/history
  path: ""
  retention_days: %d

logging:
  level: info
  # Empty means $XDG_STATE_HOME/depotscan/depotscan.log
  path: ""
  rotation:
    max_size_mb: 10
    max_age: 30
    max_backups: 5
    compress: false
`, DefaultOutputFormat, DefaultBulkWidth, DefaultBulkPause, DefaultStoreBaseURL,
		DefaultStoreTimeout, DefaultStoreRate, DefaultCacheTTL, DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/depotscan/.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/depotscan/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// CacheDir returns $XDG_CACHE_HOME/depotscan/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultCachePath returns the metadata cache database directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "meta")
}

// DefaultHistoryPath returns the history directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}
