// Package output provides formatters for displaying depotscan results
// in various output formats (pretty, plain, json, yaml, lua, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromScan("Spacewar", result)); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

// ErrUnsupportedView is returned by formatters that cannot render a view,
// such as the lua formatter given an installed-app listing.
var ErrUnsupportedView = errors.New("format does not support this view")

// View selects what a Result describes.
type View string

// Result views.
const (
	// ViewManifests is the cached manifests matched for one app.
	ViewManifests View = "manifests"

	// ViewUnits is the installed-app listing.
	ViewUnits View = "units"

	// ViewRoots is the resolved install roots and libraries.
	ViewRoots View = "roots"
)

// Result contains the complete output data for formatting.
type Result struct {
	View View `json:"view" yaml:"view"`

	// AppID and Name identify the app of a manifests view.
	AppID string `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`

	Depots  []string               `json:"depots,omitempty" yaml:"depots,omitempty"`
	Records []types.ManifestRecord `json:"records,omitempty" yaml:"records,omitempty"`

	Units []types.InstalledUnit `json:"units,omitempty" yaml:"units,omitempty"`

	// Roots are the install roots, Libraries every resolved library.
	Roots     []string `json:"roots,omitempty" yaml:"roots,omitempty"`
	Libraries []string `json:"libraries,omitempty" yaml:"libraries,omitempty"`

	RootsScanned int `json:"roots_scanned,omitempty" yaml:"roots_scanned,omitempty"`

	Warnings []types.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// FromScan builds a manifests view from a scan result.
func FromScan(name string, sr *types.ScanResult) *Result {
	r := &Result{View: ViewManifests, Name: name}
	if sr == nil {
		return r
	}
	r.AppID = sr.AppID
	r.Depots = sr.Depots
	r.Records = sr.Records
	r.RootsScanned = sr.RootsScanned
	r.Warnings = sr.Warnings
	r.Elapsed = sr.Elapsed
	return r
}

// FromUnits builds an installed-app listing view.
func FromUnits(ir *types.InstalledResult, elapsed time.Duration) *Result {
	r := &Result{View: ViewUnits, Elapsed: elapsed}
	if ir == nil {
		return r
	}
	r.Units = ir.Units
	r.Warnings = ir.Warnings
	return r
}

// FromRoots builds a roots view.
func FromRoots(roots, libraries []string, warnings []types.Warning) *Result {
	return &Result{View: ViewRoots, Roots: roots, Libraries: libraries, Warnings: warnings}
}

// TotalSize returns the summed size of the records, or of the units'
// on-disk sizes for a listing.
func (r *Result) TotalSize() int64 {
	var total int64
	switch r.View {
	case ViewUnits:
		for _, u := range r.Units {
			total += u.SizeOnDisk
		}
	default:
		for _, rec := range r.Records {
			total += rec.Size
		}
	}
	return total
}

// Keyed returns how many records carry a decryption key.
func (r *Result) Keyed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.HasKey() {
			n++
		}
	}
	return n
}

// Len returns the number of rows in the result's view.
func (r *Result) Len() int {
	switch r.View {
	case ViewUnits:
		return len(r.Units)
	case ViewRoots:
		return len(r.Libraries)
	default:
		return len(r.Records)
	}
}

// RootEntry is one resolved library in the roots view.
type RootEntry struct {
	Path    string `json:"path" yaml:"path"`
	Install bool   `json:"install" yaml:"install"`
}

// Kind returns "install" for install roots and "library" otherwise.
func (e RootEntry) Kind() string {
	if e.Install {
		return "install"
	}
	return "library"
}

// Entries returns every library tagged with whether it is an install root.
func (r *Result) Entries() []RootEntry {
	install := make(map[string]bool, len(r.Roots))
	for _, root := range r.Roots {
		install[root] = true
	}
	entries := make([]RootEntry, 0, len(r.Libraries))
	for _, lib := range r.Libraries {
		entries = append(entries, RootEntry{Path: lib, Install: install[lib]})
	}
	return entries
}

// table returns the header and rows shared by the tabular formatters.
func (r *Result) table() ([]string, [][]string) {
	switch r.View {
	case ViewUnits:
		rows := make([][]string, 0, len(r.Units))
		for _, u := range r.Units {
			rows = append(rows, []string{u.AppID, u.Name, sizeOrDash(u.SizeOnDisk), u.RootPath})
		}
		return []string{"APPID", "NAME", "SIZE", "LIBRARY"}, rows

	case ViewRoots:
		entries := r.Entries()
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Kind(), e.Path})
		}
		return []string{"KIND", "PATH"}, rows

	default:
		rows := make([][]string, 0, len(r.Records))
		for _, rec := range r.Records {
			key := rec.DecryptionKey
			if key == "" {
				key = "-"
			}
			rows = append(rows, []string{rec.DepotID, rec.ManifestID, humanize.IBytes(uint64(rec.Size)), key, rec.Path})
		}
		return []string{"DEPOT", "MANIFEST", "SIZE", "KEY", "PATH"}, rows
	}
}

func sizeOrDash(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
