package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/depotscan/pkg/depotscan/library"
	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// testKey is a 64 hex character depot key.
var testKey = strings.Repeat("deadbeef", 8)

type appManifest struct {
	AppID      string
	Name       string
	StateFlags string
	InstallDir string
	Installed  []string
	Mounted    []string
	Depots     []string
}

func (a appManifest) render() string {
	var b strings.Builder
	b.WriteString("\"AppState\"\n{\n")
	fmt.Fprintf(&b, "\t\"appid\"\t\t\"%s\"\n", a.AppID)
	if a.Name != "" {
		fmt.Fprintf(&b, "\t\"name\"\t\t\"%s\"\n", a.Name)
	}
	if a.StateFlags != "" {
		fmt.Fprintf(&b, "\t\"StateFlags\"\t\t\"%s\"\n", a.StateFlags)
	}
	if a.InstallDir != "" {
		fmt.Fprintf(&b, "\t\"installdir\"\t\t\"%s\"\n", a.InstallDir)
	}
	section := func(name string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, "\t\"%s\"\n\t{\n", name)
		for _, id := range ids {
			fmt.Fprintf(&b, "\t\t\"%s\"\n\t\t{\n\t\t\t\"manifest\"\t\t\"1\"\n\t\t}\n", id)
		}
		b.WriteString("\t}\n")
	}
	section("InstalledDepots", a.Installed)
	section("MountedDepots", a.Mounted)
	section("depots", a.Depots)
	b.WriteString("}\n")
	return b.String()
}

func configVDF(valve string, keys map[string]string, order ...string) string {
	var b strings.Builder
	b.WriteString("\"InstallConfigStore\"\n{\n\t\"Software\"\n\t{\n")
	fmt.Fprintf(&b, "\t\t\"%s\"\n\t\t{\n\t\t\t\"Steam\"\n\t\t\t{\n\t\t\t\t\"depots\"\n\t\t\t\t{\n", valve)
	for _, id := range order {
		fmt.Fprintf(&b, "\t\t\t\t\t\"%s\"\n\t\t\t\t\t{\n\t\t\t\t\t\t\"DecryptionKey\"\t\t\"%s\"\n\t\t\t\t\t}\n", id, keys[id])
	}
	b.WriteString("\t\t\t\t}\n\t\t\t}\n\t\t}\n\t}\n}\n")
	return b.String()
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func writeAppManifest(t *testing.T, fs afero.Fs, lib string, a appManifest) {
	t.Helper()
	writeFile(t, fs, AppManifestPath(lib, a.AppID), a.render())
}

func writeConfig(t *testing.T, fs afero.Fs, root string, keys map[string]string, order ...string) {
	t.Helper()
	writeFile(t, fs, ConfigPath(root), configVDF("Valve", keys, order...))
}

func touchManifest(t *testing.T, fs afero.Fs, lib, name string) {
	t.Helper()
	writeFile(t, fs, filepath.Join(DepotCachePath(lib), name), "manifest:"+name)
}

func newTestScanner(fs afero.Fs, roots ...string) *Scanner {
	return New(fs, locator.Linux, library.NewSnapshot(roots, roots))
}

// denyFs fails every open under the listed directories with a permission
// error.
type denyFs struct {
	afero.Fs
	denied []string
}

func (d *denyFs) check(name string) error {
	for _, p := range d.denied {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
		}
	}
	return nil
}

func (d *denyFs) Open(name string) (afero.File, error) {
	if err := d.check(name); err != nil {
		return nil, err
	}
	return d.Fs.Open(name)
}

func (d *denyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := d.check(name); err != nil {
		return nil, err
	}
	return d.Fs.OpenFile(name, flag, perm)
}
