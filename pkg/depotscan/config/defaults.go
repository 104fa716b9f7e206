// Package config provides configuration management for depotscan.
package config

import "time"

// Default configuration values.
const (
	// AppName names the config, data, state and cache directories.
	AppName = "depotscan"

	// EnvPrefix prefixes environment overrides (DEPOTSCAN_OUTPUT_FORMAT).
	EnvPrefix = "DEPOTSCAN"

	// DefaultOutputFormat is the formatter used when none is requested.
	DefaultOutputFormat = "pretty"

	// DefaultBulkWidth is how many apps a bulk run processes at once.
	DefaultBulkWidth = 5

	// DefaultBulkPause is the pause between bulk batches.
	DefaultBulkPause = 500 * time.Millisecond

	// DefaultStoreBaseURL is the public store catalog endpoint.
	DefaultStoreBaseURL = "https://store.steampowered.com"

	// DefaultStoreTimeout bounds one metadata request.
	DefaultStoreTimeout = 10 * time.Second

	// DefaultStoreRate is the sustained metadata request rate per second.
	DefaultStoreRate = 2.0

	// DefaultCacheTTL is how long app metadata stays cached.
	DefaultCacheTTL = 7 * 24 * time.Hour

	// DefaultRetentionDays is the default number of days to retain history.
	DefaultRetentionDays = 30

	// DefaultWatchDebounce coalesces bursts of depot cache changes.
	DefaultWatchDebounce = 2 * time.Second
)
