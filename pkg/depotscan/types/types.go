// Package types provides core data types for depotscan.
// It includes manifest records, installed app descriptions, the decryption
// key table, and the warning/error taxonomy shared by every resolver.
package types

import (
	"regexp"
	"time"
)

// StateFullyInstalled is the StateFlags bit Steam sets once an app has
// finished downloading and installing.
const StateFullyInstalled int64 = 4

// ManifestRecord describes one cached depot manifest matched for an app.
type ManifestRecord struct {
	// File is the base name, e.g. "481_111.manifest".
	File string `json:"file" yaml:"file"`

	// Path is the absolute path of the cached manifest file.
	Path string `json:"path" yaml:"path"`

	// Root is the library the file was found in.
	Root string `json:"root" yaml:"root"`

	// DepotID is the first number in the file name.
	DepotID string `json:"depot_id" yaml:"depot_id"`

	// ManifestID is the second number in the file name.
	ManifestID string `json:"manifest_id" yaml:"manifest_id"`

	// DecryptionKey is the depot key from config.vdf; empty when unknown.
	DecryptionKey string `json:"decryption_key,omitempty" yaml:"decryption_key,omitempty"`

	// Size is the manifest file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// ModTime is the manifest file modification time.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// HasKey reports whether a decryption key was resolved for the record.
func (r ManifestRecord) HasKey() bool {
	return r.DecryptionKey != ""
}

// InstalledUnit is an app whose state document marks it fully installed.
type InstalledUnit struct {
	AppID      string `json:"app_id" yaml:"app_id"`
	Name       string `json:"name" yaml:"name"`
	RootPath   string `json:"root_path" yaml:"root_path"`
	InstallDir string `json:"install_dir,omitempty" yaml:"install_dir,omitempty"`
	SizeOnDisk int64  `json:"size_on_disk,omitempty" yaml:"size_on_disk,omitempty"`

	// LibraryPaths lists every library holding a state document for the
	// app, starting with RootPath.
	LibraryPaths []string `json:"library_paths" yaml:"library_paths"`
}

// KeyTable maps depot IDs to decryption keys.
type KeyTable map[string]string

// Get returns the key for a depot, or "" when none is known.
func (k KeyTable) Get(depotID string) string {
	if k == nil {
		return ""
	}
	return k[depotID]
}

// ScanResult is the outcome of scanning the manifest caches for one app.
type ScanResult struct {
	AppID string `json:"app_id" yaml:"app_id"`

	// Depots is the resolved depot set, in discovery order.
	Depots []string `json:"depots" yaml:"depots"`

	// Records are the matching manifests, libraries in resolver order and
	// files in listing order.
	Records []ManifestRecord `json:"records" yaml:"records"`

	// RootsScanned counts libraries whose depot cache was listed.
	RootsScanned int `json:"roots_scanned" yaml:"roots_scanned"`

	// Warnings holds the per-root failures that were absorbed.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Empty reports whether no manifests were found.
func (r *ScanResult) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// KeyedRecords returns how many records carry a decryption key.
func (r *ScanResult) KeyedRecords() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, rec := range r.Records {
		if rec.HasKey() {
			n++
		}
	}
	return n
}

// InstalledResult is the outcome of enumerating installed apps.
type InstalledResult struct {
	Units    []InstalledUnit `json:"units" yaml:"units"`
	Warnings []Warning       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

var appIDPattern = regexp.MustCompile(`^\d+$`)

// ValidAppID reports whether s is a non-empty decimal identifier.
func ValidAppID(s string) bool {
	return appIDPattern.MatchString(s)
}

// AppInfo is store metadata for an app.
type AppInfo struct {
	AppID       string    `json:"app_id" yaml:"app_id"`
	Name        string    `json:"name" yaml:"name"`
	Type        string    `json:"type,omitempty" yaml:"type,omitempty"`
	HeaderImage string    `json:"header_image,omitempty" yaml:"header_image,omitempty"`
	FetchedAt   time.Time `json:"fetched_at" yaml:"fetched_at"`
}
