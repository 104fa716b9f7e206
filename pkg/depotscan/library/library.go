// Package library resolves the full set of Steam library folders from the
// install roots, following each root's libraryfolders.vdf registry.
package library

import (
	"errors"
	"path/filepath"

	"github.com/jamesainslie/depotscan/pkg/depotscan/kv"
	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var logger = logging.Get("library")

// registryLocations are the relative paths of libraryfolders.vdf, modern
// first. The legacy location is only read when the modern file is absent.
var registryLocations = [][]string{
	{"steamapps", "libraryfolders.vdf"},
	{"config", "libraryfolders.vdf"},
}

// Snapshot is the immutable set of roots discovered at startup.
type Snapshot struct {
	install   []string
	libraries []string
}

// NewSnapshot builds a snapshot from explicit lists. Both are copied.
func NewSnapshot(install, libraries []string) Snapshot {
	return Snapshot{
		install:   append([]string(nil), install...),
		libraries: append([]string(nil), libraries...),
	}
}

// InstallRoots returns the verified Steam install roots.
func (s Snapshot) InstallRoots() []string {
	return append([]string(nil), s.install...)
}

// Libraries returns install roots followed by discovered libraries, in
// first-seen order.
func (s Snapshot) Libraries() []string {
	return append([]string(nil), s.libraries...)
}

// Len returns the number of libraries.
func (s Snapshot) Len() int {
	return len(s.libraries)
}

// RegistryPath returns the libraryfolders.vdf to read for root and whether
// one exists.
func RegistryPath(fs afero.Fs, root string) (string, bool) {
	for _, rel := range registryLocations {
		p := filepath.Join(append([]string{root}, rel...)...)
		if ok, _ := afero.Exists(fs, p); ok {
			return p, true
		}
	}
	return "", false
}

// Resolve expands install roots into every library folder. Unreadable or
// malformed registries are reported as warnings; listed paths that do not
// exist are dropped.
func Resolve(fs afero.Fs, p locator.Platform, installRoots []string) (Snapshot, []types.Warning) {
	var warnings []types.Warning
	seen := make(map[string]struct{})
	var libs []string

	add := func(path string) bool {
		key := locator.Normalize(p, path)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		libs = append(libs, path)
		return true
	}

	for _, root := range installRoots {
		add(root)
	}

	for _, root := range installRoots {
		regPath, ok := RegistryPath(fs, root)
		if !ok {
			logger.Warn("libraryfolders.vdf not found", "root", root)
			continue
		}

		doc, err := kv.ReadFile(fs, regPath)
		if err != nil {
			logger.Warn("failed to parse libraryfolders.vdf", "path", regPath, "error", err)
			warnings = append(warnings, types.NewWarning(root, regPath, err))
			continue
		}

		added := 0
		for _, libPath := range kv.DecodeLibraryFolders(doc).Paths {
			exists, err := afero.DirExists(fs, libPath)
			if err != nil && !errors.Is(err, afero.ErrFileNotFound) {
				warnings = append(warnings, types.NewWarning(root, libPath, types.WrapFS("checking", libPath, err)))
				continue
			}
			if !exists {
				logger.Debug("library folder missing", "path", libPath)
				continue
			}
			if add(libPath) {
				added++
				logger.Info("found additional steam library", "path", libPath)
			}
		}
		if added > 0 {
			logger.Debug("additional libraries found", "root", root, "count", added)
		}
	}

	logger.Info("steam libraries detected", "count", len(libs))
	return Snapshot{install: append([]string(nil), installRoots...), libraries: libs}, warnings
}
