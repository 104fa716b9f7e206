// Package history records scan and export operations so past results can
// be listed and inspected later.
package history

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpScan represents a single-app scan.
	OpScan OperationType = "scan"
	// OpExport represents an export to an output folder.
	OpExport OperationType = "export"
	// OpBulk represents a bulk run over installed apps.
	OpBulk OperationType = "bulk"
)

// Entry represents a single history entry.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation OperationType   `json:"operation"`
	AppID     string          `json:"app_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	OutputDir string          `json:"output_dir,omitempty"`
	Manifests []ManifestEntry `json:"manifests"`
	Summary   Summary         `json:"summary"`
}

// ManifestEntry is one manifest seen by an operation. Keys are never
// persisted; only whether one was known.
type ManifestEntry struct {
	DepotID    string `json:"depot_id"`
	ManifestID string `json:"manifest_id"`
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	Keyed      bool   `json:"keyed"`
}

// Summary contains operation summary.
type Summary struct {
	Apps      int   `json:"apps"`
	Manifests int   `json:"manifests"`
	Keyed     int   `json:"keyed"`
	Failed    int   `json:"failed,omitempty"`
	Bytes     int64 `json:"bytes"`
}
