package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSized(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestMeasure(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "game.exe"), 1000)
	writeSized(t, filepath.Join(root, "data", "pak0.vpk"), 2048)
	writeSized(t, filepath.Join(root, "data", "maps", "de_dust2.bsp"), 512)

	u, err := Measure(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.Files)
	assert.Equal(t, int64(2), u.Dirs)
	assert.Equal(t, int64(1000+2048+512), u.Bytes)
	assert.Zero(t, u.Errors)
}

func TestMeasure_Missing(t *testing.T) {
	_, err := Measure(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMeasure_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "a"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Measure(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMeasureUnit(t *testing.T) {
	lib := t.TempDir()
	writeSized(t, filepath.Join(InstallPath(lib, "Spacewar"), "spacewar.exe"), 42)

	u, err := MeasureUnit(context.Background(), types.InstalledUnit{AppID: "480", RootPath: lib, InstallDir: "Spacewar"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.Bytes)

	_, err = MeasureUnit(context.Background(), types.InstalledUnit{AppID: "480", RootPath: lib})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
