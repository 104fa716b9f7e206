package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig decodes the configuration already read into the global viper.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// ensureDirectories creates the config, data and state directories.
func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// loggingConfig maps the application config onto the logging system.
func loggingConfig(cfg *config.Config, verbose bool) logging.Config {
	lc := logging.Config{
		Level: cfg.Logging.Level,
		Path:  cfg.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.Rotation.MaxSizeMB,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			Compress:   cfg.Logging.Rotation.Compress,
		},
		Components: cfg.Logging.Components,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if verbose {
		lc.ConsoleLevel = "debug"
	}
	return lc
}

// initializeLogging is the PersistentPreRunE hook.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := ensureDirectories(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logging.Init(loggingConfig(cfg, getVerbose())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func closeLogging() {
	_ = logging.Close()
}
