package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var manifestName = regexp.MustCompile(`^(\d+)_(\d+)\.manifest$`)

// ParseManifestName splits "<depot>_<manifest>.manifest" into its IDs.
func ParseManifestName(name string) (depotID, manifestID string, ok bool) {
	m := manifestName.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// DepotCachePath returns the manifest cache directory of a library.
func DepotCachePath(library string) string {
	return filepath.Join(library, "depotcache")
}

// ScanDepotCache lists one library's depot cache and returns the manifests
// whose depot is in depots, in listing order. A missing cache returns an
// error wrapping types.ErrNotFound.
func ScanDepotCache(fs afero.Fs, library string, depots map[string]struct{}, keys types.KeyTable) ([]types.ManifestRecord, error) {
	dir := DepotCachePath(library)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, types.WrapFS("listing", dir, err)
	}

	var records []types.ManifestRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		depotID, manifestID, ok := ParseManifestName(e.Name())
		if !ok {
			continue
		}
		if _, wanted := depots[depotID]; !wanted {
			continue
		}
		records = append(records, types.ManifestRecord{
			File:          e.Name(),
			Path:          filepath.Join(dir, e.Name()),
			Root:          library,
			DepotID:       depotID,
			ManifestID:    manifestID,
			DecryptionKey: keys.Get(depotID),
			Size:          e.Size(),
			ModTime:       e.ModTime(),
		})
	}
	return records, nil
}

// ScanForUnit returns every cached manifest belonging to appID across all
// libraries. Finding nothing is not an error. Per-library failures are
// returned as warnings unless every existing state document or every library
// with a depot cache failed, in which case the aggregate error wraps
// types.ErrIO.
func (s *Scanner) ScanForUnit(ctx context.Context, appID string) (*types.ScanResult, error) {
	start := time.Now()
	if !types.ValidAppID(appID) {
		return nil, fmt.Errorf("%w: app id %q is not numeric", types.ErrInvalidInput, appID)
	}

	logger.Info("scanning manifests", "app", appID, "libraries", s.snap.Len())
	result := &types.ScanResult{AppID: appID}

	libraries := s.snap.Libraries()
	resolved := resolveDepots(s.fs, libraries, appID)
	if resolved.allUnreadable() {
		return nil, fmt.Errorf("reading state documents for app %s: %w", appID, errors.Join(resolved.ioErrs...))
	}
	depots := resolved.depots
	result.Depots = depots
	result.Warnings = append(result.Warnings, resolved.warnings...)
	if len(depots) == 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	keys, warnings := ResolveKeys(s.fs, s.snap.InstallRoots())
	result.Warnings = append(result.Warnings, warnings...)

	wanted := make(map[string]struct{}, len(depots))
	for _, id := range depots {
		wanted[id] = struct{}{}
	}

	var failures []error
	for _, lib := range libraries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := ScanDepotCache(s.fs, lib, wanted, keys)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				logger.Debug("skipping library without depotcache", "library", lib)
				continue
			}
			logger.Warn("failed to scan depotcache", "library", lib, "error", err)
			result.Warnings = append(result.Warnings, types.NewWarning(lib, DepotCachePath(lib), err))
			failures = append(failures, err)
			continue
		}

		result.RootsScanned++
		if len(records) > 0 {
			logger.Info("found manifests", "library", lib, "count", len(records))
		}
		result.Records = append(result.Records, records...)
	}

	if len(failures) > 0 && result.RootsScanned == 0 {
		return nil, fmt.Errorf("scanning depot caches for app %s: %w", appID, errors.Join(failures...))
	}

	result.Elapsed = time.Since(start)
	logger.Info("scan complete", "app", appID, "manifests", len(result.Records), "keyed", result.KeyedRecords())
	return result, nil
}
