package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var appManifestName = regexp.MustCompile(`^appmanifest_(\d+)\.acf$`)

// UnknownName is used when a state document has no name.
const UnknownName = "Unknown"

// ListInstalledUnits enumerates fully installed apps across all libraries.
// An app present in several libraries is reported once, at the first
// library it appears in, with every library recorded in LibraryPaths.
func (s *Scanner) ListInstalledUnits(ctx context.Context) (*types.InstalledResult, error) {
	result := &types.InstalledResult{}
	index := make(map[string]int)

	listed := 0
	var failures []error

	for _, lib := range s.snap.Libraries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(lib, "steamapps")
		entries, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			err = types.WrapFS("listing", dir, err)
			if errors.Is(err, types.ErrNotFound) {
				logger.Warn("steamapps folder not found", "library", lib)
				continue
			}
			logger.Warn("failed to scan steamapps", "path", dir, "error", err)
			result.Warnings = append(result.Warnings, types.NewWarning(lib, dir, err))
			failures = append(failures, err)
			continue
		}
		listed++

		found := 0
		for _, e := range entries {
			m := appManifestName.FindStringSubmatch(e.Name())
			if m == nil || e.IsDir() {
				continue
			}
			appID := m[1]
			path := filepath.Join(dir, e.Name())

			state, err := ReadAppState(s.fs, path)
			if err != nil {
				logger.Warn("error processing manifest file", "path", path, "error", err)
				result.Warnings = append(result.Warnings, types.NewWarning(lib, path, err))
				continue
			}
			if !state.FullyInstalled() {
				continue
			}
			found++

			if i, dup := index[appID]; dup {
				u := &result.Units[i]
				u.LibraryPaths = append(u.LibraryPaths, lib)
				logger.Debug("app present in several libraries", "app", appID, "library", lib)
				continue
			}

			name := state.Name
			if name == "" {
				name = UnknownName
			}
			index[appID] = len(result.Units)
			result.Units = append(result.Units, types.InstalledUnit{
				AppID:        appID,
				Name:         name,
				RootPath:     lib,
				InstallDir:   state.InstallDir,
				SizeOnDisk:   state.SizeOnDisk,
				LibraryPaths: []string{lib},
			})
		}
		logger.Debug("installed apps in library", "library", lib, "count", found)
	}

	if len(failures) > 0 && listed == 0 {
		return nil, fmt.Errorf("listing installed apps: %w", errors.Join(failures...))
	}

	logger.Info("installed apps found", "count", len(result.Units))
	return result, nil
}

// LookupUnit returns the state of appID from the first library holding a
// state document for it, regardless of install state.
func (s *Scanner) LookupUnit(appID string) (types.InstalledUnit, bool) {
	if !types.ValidAppID(appID) {
		return types.InstalledUnit{}, false
	}

	var unit types.InstalledUnit
	for _, lib := range s.snap.Libraries() {
		state, err := ReadAppState(s.fs, AppManifestPath(lib, appID))
		if err != nil {
			continue
		}
		if unit.AppID == "" {
			unit = types.InstalledUnit{
				AppID:      appID,
				Name:       state.Name,
				RootPath:   lib,
				InstallDir: state.InstallDir,
				SizeOnDisk: state.SizeOnDisk,
			}
			if unit.Name == "" {
				unit.Name = UnknownName
			}
		}
		unit.LibraryPaths = append(unit.LibraryPaths, lib)
	}
	return unit, unit.AppID != ""
}
