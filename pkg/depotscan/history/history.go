package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

// ErrEntryNotFound is returned by Get when no entry matches.
var ErrEntryNotFound = errors.New("history entry not found")

// ErrAmbiguousID is returned by Get when a prefix matches several entries.
var ErrAmbiguousID = errors.New("history id prefix is ambiguous")

// History manages operation logging to the filesystem.
type History struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New creates a History in dir. The directory is not created until
// EnsureDir is called.
func New(fs afero.Fs, dir string) (*History, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &History{fs: fs, dir: dir, now: time.Now}, nil
}

// Dir returns the history directory.
func (h *History) Dir() string {
	return h.dir
}

// EnsureDir creates the history directory if it does not exist.
func (h *History) EnsureDir() error {
	return h.fs.MkdirAll(h.dir, 0o755)
}

// FromRecords converts scan records into history entries.
func FromRecords(records []types.ManifestRecord) []ManifestEntry {
	out := make([]ManifestEntry, 0, len(records))
	for _, r := range records {
		out = append(out, ManifestEntry{
			DepotID:    r.DepotID,
			ManifestID: r.ManifestID,
			Path:       r.Path,
			Size:       r.Size,
			Keyed:      r.HasKey(),
		})
	}
	return out
}

// LogScan records a single-app scan.
func (h *History) LogScan(appID, name string, records []types.ManifestRecord) (*Entry, error) {
	return h.Log(&Entry{Operation: OpScan, AppID: appID, Name: name, Manifests: FromRecords(records)})
}

// LogExport records an export.
func (h *History) LogExport(appID, name, dir string, records []types.ManifestRecord) (*Entry, error) {
	return h.Log(&Entry{Operation: OpExport, AppID: appID, Name: name, OutputDir: dir, Manifests: FromRecords(records)})
}

// Log assigns an ID and timestamp to entry, fills the summary counts it
// can derive, and persists it.
func (h *History) Log(entry *Entry) (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.Timestamp = h.now().UTC()
	if entry.Manifests == nil {
		entry.Manifests = []ManifestEntry{}
	}

	if entry.Summary.Manifests == 0 {
		entry.Summary.Manifests = len(entry.Manifests)
	}
	if entry.Summary.Apps == 0 && entry.AppID != "" {
		entry.Summary.Apps = 1
	}
	var keyed int
	var bytes int64
	for _, m := range entry.Manifests {
		if m.Keyed {
			keyed++
		}
		bytes += m.Size
	}
	if entry.Summary.Keyed == 0 {
		entry.Summary.Keyed = keyed
	}
	if entry.Summary.Bytes == 0 {
		entry.Summary.Bytes = bytes
	}

	if err := h.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

// writeEntry writes an entry to a JSON file in the history directory.
func (h *History) writeEntry(entry *Entry) error {
	if err := h.fs.MkdirAll(h.dir, 0o755); err != nil {
		return err
	}
	filePath := filepath.Join(h.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	// Write atomically using a temp file and rename
	tmpPath := filePath + ".tmp"
	if err := afero.WriteFile(h.fs, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := h.fs.Rename(tmpPath, filePath); err != nil {
		_ = h.fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries sorted by timestamp descending (newest first).
// If limit is 0 or negative, all entries are returned.
func (h *History) List(limit int) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get retrieves an entry by ID or unique ID prefix.
func (h *History) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		e := &entries[i]
		if e.ID == id {
			return e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries older than retentionDays and returns how many
// were removed.
func (h *History) Cleanup(retentionDays int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().AddDate(0, 0, -retentionDays)
	entries, err := h.readAll()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := h.fs.Remove(filepath.Join(h.dir, e.ID+".json")); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// readAll parses every entry file; unreadable files are skipped.
func (h *History) readAll() ([]Entry, error) {
	files, err := afero.ReadDir(h.fs, h.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := afero.ReadFile(h.fs, filepath.Join(h.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
