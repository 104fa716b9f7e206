package scanner

import (
	"context"
	"testing"

	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScanForUnit_CrossRoot covers a manifest cached in one root whose
// depot and key are only known to the other root.
func TestScanForUnit_CrossRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	rootA, rootB := "/steamA", "/steamB"

	touchManifest(t, fs, rootA, "481_111.manifest")
	writeAppManifest(t, fs, rootB, appManifest{AppID: "480", Name: "Spacewar", StateFlags: "4", Depots: []string{"481"}})
	writeConfig(t, fs, rootB, map[string]string{"481": testKey}, "481")

	s := newTestScanner(fs, rootA, rootB)
	res, err := s.ScanForUnit(context.Background(), "480")
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "481", rec.DepotID)
	assert.Equal(t, "111", rec.ManifestID)
	assert.Equal(t, testKey, rec.DecryptionKey)
	assert.Equal(t, "481_111.manifest", rec.File)
	assert.Equal(t, "/steamA/depotcache/481_111.manifest", rec.Path)
	assert.Equal(t, rootA, rec.Root)
	assert.Equal(t, int64(len("manifest:481_111.manifest")), rec.Size)
	assert.Equal(t, []string{"481"}, res.Depots)
	assert.Equal(t, 1, res.RootsScanned)
	assert.Empty(t, res.Warnings)
}

func TestScanForUnit_FiltersByDepotAndName(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/steam"

	writeAppManifest(t, fs, root, appManifest{
		AppID: "730", StateFlags: "4",
		Installed: []string{"731", "732"},
		Mounted:   []string{"733"},
	})
	for _, name := range []string{
		"731_100.manifest",
		"732_200.manifest",
		"733_300.manifest",
		"999_400.manifest",   // other app
		"731_abc.manifest",   // not numeric
		"731_100.manifest.1", // wrong suffix
		"x731_100.manifest",  // prefix
		"731-100.manifest",   // wrong separator
	} {
		touchManifest(t, fs, root, name)
	}
	require.NoError(t, fs.MkdirAll(DepotCachePath(root)+"/734_1.manifest", 0o755))

	s := newTestScanner(fs, root)
	res, err := s.ScanForUnit(context.Background(), "730")
	require.NoError(t, err)

	var files []string
	for _, r := range res.Records {
		files = append(files, r.File)
		assert.False(t, r.HasKey())
	}
	assert.Equal(t, []string{"731_100.manifest", "732_200.manifest", "733_300.manifest"}, files)
}

func TestScanForUnit_NoCrossRootDedup(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAppManifest(t, fs, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, fs, "/a", "11_5.manifest")
	touchManifest(t, fs, "/b", "11_5.manifest")

	s := newTestScanner(fs, "/a", "/b")
	res, err := s.ScanForUnit(context.Background(), "10")
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "/a", res.Records[0].Root)
	assert.Equal(t, "/b", res.Records[1].Root)
	assert.Equal(t, 2, res.RootsScanned)
}

func TestScanForUnit_EmptyIsNotError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/steam", 0o755))

	s := newTestScanner(fs, "/steam")
	res, err := s.ScanForUnit(context.Background(), "480")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Depots)

	// Depots known but no cache anywhere.
	writeAppManifest(t, fs, "/steam", appManifest{AppID: "480", StateFlags: "4", Installed: []string{"481"}})
	res, err = s.ScanForUnit(context.Background(), "480")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 0, res.RootsScanned)
}

func TestScanForUnit_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAppManifest(t, fs, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"12", "11"}})
	writeConfig(t, fs, "/a", map[string]string{"11": testKey}, "11")
	touchManifest(t, fs, "/a", "12_2.manifest")
	touchManifest(t, fs, "/a", "11_1.manifest")
	touchManifest(t, fs, "/b", "11_3.manifest")

	s := newTestScanner(fs, "/a", "/b")
	first, err := s.ScanForUnit(context.Background(), "10")
	require.NoError(t, err)
	second, err := s.ScanForUnit(context.Background(), "10")
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Depots, second.Depots)
}

func TestScanForUnit_InvalidAppID(t *testing.T) {
	s := newTestScanner(afero.NewMemMapFs(), "/steam")
	for _, id := range []string{"", "abc", "48 0", "../480"} {
		_, err := s.ScanForUnit(context.Background(), id)
		assert.ErrorIs(t, err, types.ErrInvalidInput, id)
	}
}

func TestScanForUnit_PartialFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	writeAppManifest(t, base, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, base, "/a", "11_1.manifest")
	touchManifest(t, base, "/b", "11_2.manifest")

	fs := &denyFs{Fs: base, denied: []string{DepotCachePath("/b")}}
	s := newTestScanner(fs, "/a", "/b")

	res, err := s.ScanForUnit(context.Background(), "10")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "/a", res.Records[0].Root)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.KindIO, res.Warnings[0].Kind)
	assert.Equal(t, "/b", res.Warnings[0].Root)
}

func TestScanForUnit_AllRootsFail(t *testing.T) {
	base := afero.NewMemMapFs()
	writeAppManifest(t, base, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, base, "/a", "11_1.manifest")
	touchManifest(t, base, "/b", "11_2.manifest")

	fs := &denyFs{Fs: base, denied: []string{DepotCachePath("/a"), DepotCachePath("/b")}}
	s := newTestScanner(fs, "/a", "/b")

	_, err := s.ScanForUnit(context.Background(), "10")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.Equal(t, types.KindIO, types.Classify(err))
}

func TestScanForUnit_AllStateDocsUnreadable(t *testing.T) {
	base := afero.NewMemMapFs()
	writeAppManifest(t, base, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	writeAppManifest(t, base, "/b", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, base, "/a", "11_1.manifest")

	fs := &denyFs{Fs: base, denied: []string{AppManifestPath("/a", "10"), AppManifestPath("/b", "10")}}
	s := newTestScanner(fs, "/a", "/b")

	res, err := s.ScanForUnit(context.Background(), "10")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.Equal(t, types.KindIO, types.Classify(err))
}

func TestScanForUnit_SomeStateDocsUnreadable(t *testing.T) {
	base := afero.NewMemMapFs()
	writeAppManifest(t, base, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	writeAppManifest(t, base, "/b", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, base, "/a", "11_1.manifest")

	fs := &denyFs{Fs: base, denied: []string{AppManifestPath("/b", "10")}}
	s := newTestScanner(fs, "/a", "/b")

	res, err := s.ScanForUnit(context.Background(), "10")
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.KindIO, res.Warnings[0].Kind)
}

func TestScanForUnit_Cancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeAppManifest(t, fs, "/a", appManifest{AppID: "10", StateFlags: "4", Installed: []string{"11"}})
	touchManifest(t, fs, "/a", "11_1.manifest")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(fs, "/a").ScanForUnit(ctx, "10")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInitialize(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/home/gabe/.steam/steam"
	require.NoError(t, fs.MkdirAll("/mnt/lib", 0o755))
	writeFile(t, fs, root+"/steamapps/libraryfolders.vdf",
		"\"libraryfolders\"\n{\n\t\"0\"\n\t{\n\t\t\"path\"\t\t\"/mnt/lib\"\n\t}\n}\n")

	s, err := Initialize(context.Background(), fs, locator.Options{Platform: locator.Linux, Home: "/home/gabe"})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, s.Snapshot().InstallRoots())
	assert.Equal(t, []string{root, "/mnt/lib"}, s.Snapshot().Libraries())
	assert.Equal(t, locator.Linux, s.Platform())
	assert.Empty(t, s.StartupWarnings())
}

func TestInitialize_NoClient(t *testing.T) {
	_, err := Initialize(context.Background(), afero.NewMemMapFs(), locator.Options{Platform: locator.Linux, Home: "/nobody"})
	assert.ErrorIs(t, err, types.ErrClientNotFound)
	assert.Equal(t, types.KindConfigurationMissing, types.Classify(err))
}

func TestParseManifestName(t *testing.T) {
	tests := []struct {
		name     string
		depot    string
		manifest string
		ok       bool
	}{
		{"481_111.manifest", "481", "111", true},
		{"228988_6645201662696499616.manifest", "228988", "6645201662696499616", true},
		{"481_111.manifest.tmp", "", "", false},
		{"_111.manifest", "", "", false},
		{"481_.manifest", "", "", false},
		{"a481_111.manifest", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m, ok := ParseManifestName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.depot, d)
			assert.Equal(t, tt.manifest, m)
		})
	}
}
