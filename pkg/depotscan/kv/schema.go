package kv

import "github.com/jamesainslie/depotscan/pkg/depotscan/types"

// contentStatsKey is a sibling of the numbered entries in libraryfolders.vdf
// that is not a library.
const contentStatsKey = "contentstatsid"

// LibraryFolders is the decoded library-folder registry.
type LibraryFolders struct {
	// Paths are the raw (unescaped) library paths in entry order.
	Paths []string
}

// DecodeLibraryFolders extracts library paths from a parsed
// libraryfolders.vdf. Modern entries are maps with a "path" key; the legacy
// format stores the path directly as the value of a numbered key.
func DecodeLibraryFolders(doc Node) LibraryFolders {
	var lf LibraryFolders

	folders, ok := doc.Get("libraryfolders")
	if !ok {
		return lf
	}

	for _, key := range folders.Keys() {
		if key == contentStatsKey {
			continue
		}
		raw, _ := folders.Child(key)
		switch v := raw.(type) {
		case string:
			if IsNumeric(key) && v != "" {
				lf.Paths = append(lf.Paths, Unescape(v))
			}
		default:
			entry, ok := asNode(v)
			if !ok {
				continue
			}
			if p, ok := entry.Text("path"); ok && p != "" {
				lf.Paths = append(lf.Paths, Unescape(p))
			}
		}
	}
	return lf
}

// AppState is the decoded appmanifest_<id>.acf state document.
type AppState struct {
	AppID      string
	Name       string
	InstallDir string
	SizeOnDisk int64

	// StateFlags is the status bitmask; HasStateFlags is false when the field
	// is absent or not a number.
	StateFlags    int64
	HasStateFlags bool

	InstalledDepots []string
	MountedDepots   []string
	Depots          []string
}

// DecodeAppState extracts the fields depotscan consumes from a state
// document. It returns false when the document has no AppState section.
func DecodeAppState(doc Node) (AppState, bool) {
	state, ok := doc.Get("AppState")
	if !ok {
		return AppState{}, false
	}

	var a AppState
	a.AppID, _ = state.Text("appid")
	a.Name, _ = state.Text("name")
	a.InstallDir, _ = state.Text("installdir")
	a.SizeOnDisk, _ = state.Int("SizeOnDisk")
	a.StateFlags, a.HasStateFlags = state.Int("StateFlags")

	if installed, ok := state.Get("InstalledDepots"); ok {
		a.InstalledDepots = installed.Keys()
	}
	if mounted, ok := state.Get("MountedDepots"); ok {
		a.MountedDepots = mounted.Keys()
	}
	if depots, ok := state.Get("depots"); ok {
		for _, k := range depots.Keys() {
			if IsNumeric(k) {
				a.Depots = append(a.Depots, k)
			}
		}
	}
	return a, true
}

// DepotIDs returns the union of installed, mounted and generic depot IDs in
// that order, without duplicates.
func (a AppState) DepotIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, group := range [][]string{a.InstalledDepots, a.MountedDepots, a.Depots} {
		for _, id := range group {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// FullyInstalled reports whether the fully-installed bit is set.
func (a AppState) FullyInstalled() bool {
	return a.HasStateFlags && a.StateFlags&types.StateFullyInstalled != 0
}

// InstallConfig is the decoded depot section of config/config.vdf.
type InstallConfig struct {
	// Keys maps depot IDs to decryption keys.
	Keys types.KeyTable

	// Order lists the depot IDs in Keys in document order.
	Order []string
}

// installConfigPath is where Steam keeps depot secrets inside config.vdf.
var installConfigPath = []string{"InstallConfigStore", "Software", "Valve", "Steam", "depots"}

// DecodeInstallConfig extracts depot decryption keys. It returns false when
// the nested depot table is missing at any level.
func DecodeInstallConfig(doc Node) (InstallConfig, bool) {
	depots, ok := doc.Get(installConfigPath...)
	if !ok {
		return InstallConfig{}, false
	}

	cfg := InstallConfig{Keys: make(types.KeyTable)}
	for _, id := range depots.Keys() {
		key, ok := depots.Text(id, "DecryptionKey")
		if !ok || key == "" {
			continue
		}
		cfg.Keys[id] = key
		cfg.Order = append(cfg.Order, id)
	}
	return cfg, true
}
