package scanner

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/depotscan/pkg/depotscan/kv"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

// AppManifestPath returns the state document path for appID in library.
func AppManifestPath(library, appID string) string {
	return filepath.Join(library, "steamapps", fmt.Sprintf("appmanifest_%s.acf", appID))
}

// ReadAppState reads and decodes one state document. A document without an
// AppState section is reported as a parse error.
func ReadAppState(fs afero.Fs, path string) (kv.AppState, error) {
	doc, err := kv.ReadFile(fs, path)
	if err != nil {
		return kv.AppState{}, err
	}
	state, ok := kv.DecodeAppState(doc)
	if !ok {
		return kv.AppState{}, fmt.Errorf("parsing %s: %w: no AppState section", path, types.ErrParse)
	}
	return state, nil
}

// ResolveDepots collects the depot IDs of appID from every library's state
// document: installed, then mounted, then generic depots, first-seen order.
// Missing documents contribute nothing; unreadable ones become warnings.
func ResolveDepots(fs afero.Fs, libraries []string, appID string) ([]string, []types.Warning) {
	r := resolveDepots(fs, libraries, appID)
	return r.depots, r.warnings
}

type depotResolution struct {
	depots   []string
	warnings []types.Warning
	// present counts state documents that exist, readable or not.
	present  int
	ioErrs   []error
}

// allUnreadable reports whether state documents existed and every one of
// them failed with an I/O error.
func (r depotResolution) allUnreadable() bool {
	return len(r.ioErrs) > 0 && len(r.ioErrs) == r.present
}

func resolveDepots(fs afero.Fs, libraries []string, appID string) depotResolution {
	var r depotResolution
	seen := make(map[string]struct{})

	for _, lib := range libraries {
		path := AppManifestPath(lib, appID)
		state, err := ReadAppState(fs, path)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			r.present++
			if types.Classify(err) == types.KindIO {
				r.ioErrs = append(r.ioErrs, err)
			}
			logger.Warn("failed to parse appmanifest", "app", appID, "path", path, "error", err)
			r.warnings = append(r.warnings, types.NewWarning(lib, path, err))
			continue
		}
		r.present++

		for _, id := range state.DepotIDs() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			r.depots = append(r.depots, id)
		}
	}

	if len(r.depots) == 0 {
		logger.Warn("no depot ids found", "app", appID)
	} else {
		logger.Info("depots resolved", "app", appID, "count", len(r.depots))
	}
	return r
}
