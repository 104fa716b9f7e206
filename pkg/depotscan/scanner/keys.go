package scanner

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/depotscan/pkg/depotscan/kv"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

// ConfigPath returns the client configuration document for an install root.
func ConfigPath(root string) string {
	return filepath.Join(root, "config", "config.vdf")
}

// ResolveKeys merges the depot decryption keys of every install root.
// Roots are applied in order, so a later root overrides an earlier one;
// an override with a different value is reported as a key conflict.
func ResolveKeys(fs afero.Fs, roots []string) (types.KeyTable, []types.Warning) {
	keys := make(types.KeyTable)
	origin := make(map[string]string)
	var warnings []types.Warning

	for _, root := range roots {
		path := ConfigPath(root)
		doc, err := kv.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			logger.Warn("failed to parse config.vdf", "path", path, "error", err)
			warnings = append(warnings, types.NewWarning(root, path, err))
			continue
		}

		cfg, ok := kv.DecodeInstallConfig(doc)
		if !ok {
			logger.Debug("config.vdf has no depot table", "path", path)
			continue
		}

		for _, id := range cfg.Order {
			key := cfg.Keys[id]
			if prev, exists := keys[id]; exists && prev != key {
				warnings = append(warnings, conflictWarning(id, origin[id], root, path))
			}
			keys[id] = key
			origin[id] = root
		}
	}

	logger.Debug("decryption keys resolved", "count", len(keys))
	return keys, warnings
}

func conflictWarning(depotID, earlier, later, path string) types.Warning {
	err := fmt.Errorf("depot %s: key from %s overrides key from %s", depotID, later, earlier)
	logger.Warn("conflicting decryption keys", "depot", depotID, "kept", later, "dropped", earlier)
	return types.Warning{
		Kind:    types.KindKeyConflict,
		Root:    later,
		Path:    path,
		Err:     err,
		Message: err.Error(),
	}
}
