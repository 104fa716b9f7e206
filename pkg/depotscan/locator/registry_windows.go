//go:build windows

package locator

import (
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// registryKeys are the places Steam records its install path.
var registryKeys = []struct {
	root  registry.Key
	path  string
	value string
}{
	{registry.CURRENT_USER, `Software\Valve\Steam`, "SteamPath"},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Valve\Steam`, "InstallPath"},
	{registry.LOCAL_MACHINE, `SOFTWARE\Valve\Steam`, "InstallPath"},
}

// registryRoots returns install paths recorded in the registry.
func registryRoots() []string {
	var roots []string
	for _, rk := range registryKeys {
		k, err := registry.OpenKey(rk.root, rk.path, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		v, _, err := k.GetStringValue(rk.value)
		_ = k.Close()
		if err != nil || v == "" {
			continue
		}
		// SteamPath is stored with forward slashes.
		roots = append(roots, filepath.Clean(v))
	}
	return roots
}
