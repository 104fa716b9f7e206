// Package watch observes library depot caches and state documents and
// reports debounced batches of relevant changes.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
)

var logger = logging.Get("watcher")

// DefaultDebounce is the quiet period before a change batch is reported.
const DefaultDebounce = 2 * time.Second

// Change is a debounced batch of filesystem events.
type Change struct {
	// Paths are the distinct changed paths, sorted.
	Paths []string
	At    time.Time
}

// Relevant reports whether a changed file can affect scan results:
// cached manifests, app state documents and config.vdf.
func Relevant(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".manifest"):
		return true
	case strings.HasPrefix(base, "appmanifest_") && strings.HasSuffix(base, ".acf"):
		return true
	case base == "config.vdf", base == "libraryfolders.vdf":
		return true
	}
	return false
}

// Watcher watches a fixed set of directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	paths    map[string]bool
	mu       sync.Mutex
	closed   bool
}

// New creates a Watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fsw: fsw, debounce: debounce, paths: make(map[string]bool)}, nil
}

// Add watches one directory (not recursively). Adding a watched directory
// again is a no-op.
func (w *Watcher) Add(dir string) error {
	_, err := w.add(dir)
	return err
}

// add reports whether dir was newly watched.
func (w *Watcher) add(dir string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false, errors.New("watcher is closed")
	}
	if w.paths[dir] {
		return false, nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return false, err
	}
	w.paths[dir] = true
	logger.Debug("watching", "path", dir)
	return true, nil
}

// AddLibraries watches the depotcache and steamapps folders of each
// library, plus config of each install root. Folders that cannot be
// watched are skipped; the number of newly watched folders is returned.
func (w *Watcher) AddLibraries(installRoots, libraries []string) int {
	var dirs []string
	for _, lib := range libraries {
		dirs = append(dirs, filepath.Join(lib, "depotcache"), filepath.Join(lib, "steamapps"))
	}
	for _, root := range installRoots {
		dirs = append(dirs, filepath.Join(root, "config"))
	}

	n := 0
	for _, d := range dirs {
		added, err := w.add(d)
		if err != nil {
			logger.Debug("cannot watch folder", "path", d, "error", err)
			continue
		}
		if added {
			n++
		}
	}
	return n
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Run delivers debounced batches of relevant changes to onChange until ctx
// is cancelled or the watcher is closed. onChange runs on the Run
// goroutine; events arriving meanwhile start the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || !Relevant(event.Name) {
				continue
			}
			logger.Debug("change", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
			pending[event.Name] = struct{}{}

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			change := Change{At: time.Now()}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			sort.Strings(change.Paths)
			clear(pending)
			onChange(change)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
