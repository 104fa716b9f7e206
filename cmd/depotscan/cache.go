package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/depotscan/pkg/depotscan/cache"
	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the app metadata cache",
	Long: `Commands for managing the app metadata cache.

The cache stores store lookups (name, type, header image) so repeat scans
and bulk runs do not query the store again. Data is kept in the XDG cache
directory (typically ~/.cache/depotscan/meta).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached metadata",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := cachePath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		c, err := cache.Open(path, 0)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()

		n, err := c.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cache cleared (%d entries).\n", n)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := cachePath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Cache: empty (no cache database)")
			fmt.Printf("Cache location: %s\n", path)
			return nil
		}

		c, err := cache.Open(path, 0)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()

		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("failed to read cache stats: %w", err)
		}

		fmt.Printf("Cache location: %s\n", stats.Path)
		fmt.Printf("Entries:        %d\n", stats.Entries)
		fmt.Printf("LSM size:       %s\n", humanize.IBytes(uint64(stats.LSMSize)))
		fmt.Printf("Value log size: %s\n", humanize.IBytes(uint64(stats.LogSize)))
		return nil
	},
}

var cacheForgetCmd = &cobra.Command{
	Use:   "forget <appid>",
	Short: "Remove one app from the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := cache.Open(cachePath(), 0)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()

		if err := c.Forget(args[0]); err != nil {
			return fmt.Errorf("failed to remove %s: %w", args[0], err)
		}
		fmt.Printf("Removed %s from the cache.\n", args[0])
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(cachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheForgetCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cachePath returns the configured cache location or the default.
func cachePath() string {
	if cfg, err := loadConfig(); err == nil && cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}
	return config.DefaultCachePath()
}
