package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/jamesainslie/depotscan/pkg/depotscan/library"
	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/jamesainslie/depotscan/pkg/depotscan/scanner"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("c0ffee00", 8)

const spacewarState = `"AppState"
{
	"appid"		"480"
	"name"		"Spacewar"
	"StateFlags"		"4"
	"installdir"		"Spacewar"
	"InstalledDepots"
	{
		"481"
		{
			"manifest"		"111"
		}
	}
}
`

const spacewarConfig = `"InstallConfigStore"
{
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"depots"
				{
					"481"
					{
						"DecryptionKey"		"` + "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00" + `"
					}
				}
			}
		}
	}
}
`

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

// testApp returns an app over an in-memory Steam root at /steam holding
// Spacewar with one cached, keyed manifest.
func testApp(t *testing.T) (*app, *scanner.Scanner) {
	t.Helper()
	fs := afero.NewMemMapFs()
	write(t, fs, "/steam/steamapps/appmanifest_480.acf", spacewarState)
	write(t, fs, "/steam/config/config.vdf", spacewarConfig)
	write(t, fs, "/steam/depotcache/481_111.manifest", "manifest-bytes")

	a := &app{
		cfg: &config.Config{History: config.HistoryConfig{Enabled: false}},
		fs:  fs,
	}
	sc := scanner.New(fs, locator.Linux, library.NewSnapshot([]string{"/steam"}, []string{"/steam"}))
	return a, sc
}

func TestLoggingConfig(t *testing.T) {
	cfg := &config.Config{
		Logging: config.LoggingConfig{
			Path: "/tmp/x.log",
			Rotation: config.RotationConfig{
				MaxSizeMB:  20,
				MaxAge:     7,
				MaxBackups: 2,
				Compress:   true,
			},
			Components: map[string]string{"scanner": "debug"},
		},
	}

	lc := loggingConfig(cfg, false)
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "/tmp/x.log", lc.Path)
	assert.Equal(t, 20, lc.Rotation.MaxSizeMB)
	assert.Equal(t, 7, lc.Rotation.MaxAge)
	assert.Equal(t, 2, lc.Rotation.MaxBackups)
	assert.True(t, lc.Rotation.Compress)
	assert.Equal(t, "debug", lc.Components["scanner"])
	assert.Empty(t, lc.ConsoleLevel)

	assert.Equal(t, "debug", loggingConfig(cfg, true).ConsoleLevel)
}

func TestLocatorOptions(t *testing.T) {
	a := &app{cfg: &config.Config{Steam: config.SteamConfig{
		Paths:    []string{"/opt/steam"},
		Platform: "win32",
		Registry: true,
	}}}

	opts, err := a.locatorOptions()
	require.NoError(t, err)
	assert.Equal(t, locator.Windows, opts.Platform)
	assert.Equal(t, []string{"/opt/steam"}, opts.Extra)
	assert.True(t, opts.Registry)

	a.cfg.Steam.Platform = "amiga"
	_, err = a.locatorOptions()
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestOutputDir(t *testing.T) {
	a := &app{cfg: &config.Config{}}
	assert.Equal(t, ".", a.outputDir(""))

	a.cfg.Output.Dir = "/exports"
	assert.Equal(t, "/exports", a.outputDir(""))
	assert.Equal(t, "/flag", a.outputDir("/flag"))
}

func TestScanApp(t *testing.T) {
	a, sc := testApp(t)

	s, err := a.scanApp(context.Background(), sc, nil, "480")
	require.NoError(t, err)
	assert.Equal(t, "Spacewar", s.name)
	require.Len(t, s.result.Records, 1)
	assert.Equal(t, testKey, s.result.Records[0].DecryptionKey)

	_, err = a.scanApp(context.Background(), sc, nil, "abc")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDisplayName_FallsBackToID(t *testing.T) {
	a, sc := testApp(t)
	assert.Equal(t, "999", a.displayName(context.Background(), sc, nil, "999"))
}

func TestExportApp(t *testing.T) {
	a, sc := testApp(t)

	s, res, err := a.exportApp(context.Background(), sc, nil, "480", "/out")
	require.NoError(t, err)
	assert.Equal(t, "Spacewar", s.name)
	assert.Equal(t, filepath.Join("/out", "Spacewar"), res.Dir)

	data, err := afero.ReadFile(a.fs, filepath.Join(res.Dir, "481_111.manifest"))
	require.NoError(t, err)
	assert.Equal(t, "manifest-bytes", string(data))

	lua, err := afero.ReadFile(a.fs, filepath.Join(res.Dir, "script_480.lua"))
	require.NoError(t, err)
	assert.Equal(t, "addappid(480)\nsetManifestid(480,\"111\")\nsetDecryptionKey(480,\""+testKey+"\")\n", string(lua))
}

func TestExportApp_NoManifests(t *testing.T) {
	a, sc := testApp(t)

	s, res, err := a.exportApp(context.Background(), sc, nil, "10", "/out")
	assert.ErrorIs(t, err, types.ErrNotFound)
	require.NotNil(t, s)
	assert.True(t, s.result.Empty())
	assert.Nil(t, res)

	exists, _ := afero.DirExists(a.fs, "/out")
	assert.False(t, exists)
}

func TestRunVerify(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.lua")
	require.NoError(t, os.WriteFile(good, []byte("addappid(480)\nsetManifestid(480,\"111\")\nsetDecryptionKey(480,\""+testKey+"\")\n"), 0o644))
	assert.NoError(t, runVerify(nil, []string{good}))

	bad := filepath.Join(dir, "bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte("addappid(480)\nsetManifestid(480,\"111\")\nsetDecryptionKey(480,\"short\")\n"), 0o644))
	assert.Error(t, runVerify(nil, []string{bad}))

	assert.Error(t, runVerify(nil, []string{filepath.Join(dir, "missing.lua")}))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEPOTSCAN_OUTPUT_FORMAT", "json")
	assert.Contains(t, envOverrides(), "DEPOTSCAN_OUTPUT_FORMAT=json")
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"Counter-Strike 2 (730)", 10, "Counter..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateString(tt.in, tt.max))
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"bulk", "cache", "config", "export", "generate", "history", "info", "list", "roots", "scan", "verify", "version", "watch"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}
