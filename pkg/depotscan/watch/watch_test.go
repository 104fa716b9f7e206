package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/s/depotcache/481_111.manifest", true},
		{"/s/steamapps/appmanifest_480.acf", true},
		{"/s/config/config.vdf", true},
		{"/s/steamapps/libraryfolders.vdf", true},
		{"/s/steamapps/downloading", false},
		{"/s/config/loginusers.vdf", false},
		{"/s/steamapps/appmanifest_480.acf.tmp", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relevant(tt.path), tt.path)
	}
}

func TestAddLibraries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "depotcache"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "steamapps"), 0o755))

	w, err := New(time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	// config/ is missing and skipped.
	n := w.AddLibraries([]string{root}, []string{root, root})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{filepath.Join(root, "depotcache"), filepath.Join(root, "steamapps")}, w.Watched())

	// Already watched folders are not counted again.
	assert.Zero(t, w.AddLibraries(nil, []string{root}))
}

func TestRun_DebouncesRelevantChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}
	dir := t.TempDir()

	w, err := New(100 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan Change, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(c Change) { changes <- c })
	}()

	// Give the event loop a moment to start.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noise.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "481_1.manifest"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "481_2.manifest"), []byte("b"), 0o644))

	select {
	case c := <-changes:
		assert.Equal(t, []string{
			filepath.Join(dir, "481_1.manifest"),
			filepath.Join(dir, "481_2.manifest"),
		}, c.Paths)
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAdd_AfterClose(t *testing.T) {
	w, err := New(0)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Add(t.TempDir()))
}
