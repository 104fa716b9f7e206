// Package disk measures the on-disk size of installed app folders.
package disk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

// Usage is the result of walking one folder.
type Usage struct {
	Path   string `json:"path" yaml:"path"`
	Files  int64  `json:"files" yaml:"files"`
	Dirs   int64  `json:"dirs" yaml:"dirs"`
	Bytes  int64  `json:"bytes" yaml:"bytes"`
	Errors int64  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// InstallPath returns where Steam installs an app's content.
func InstallPath(library, installDir string) string {
	return filepath.Join(library, "steamapps", "common", installDir)
}

// Measure walks root in parallel and sums regular file sizes. Symlinks are
// not followed. Unreadable entries are counted in Errors.
func Measure(ctx context.Context, root string) (Usage, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Usage{}, types.WrapFS("measuring", root, err)
	}
	if !info.IsDir() {
		return Usage{Path: root, Files: 1, Bytes: info.Size()}, nil
	}

	var files, dirs, bytes, failures atomic.Int64
	conf := fastwalk.Config{Follow: false}

	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			failures.Add(1)
			return nil
		}
		if d.IsDir() {
			if path != root {
				dirs.Add(1)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			failures.Add(1)
			return nil
		}
		files.Add(1)
		bytes.Add(fi.Size())
		return nil
	})

	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return Usage{}, types.WrapFS("measuring", root, walkErr)
	}

	return Usage{
		Path:   root,
		Files:  files.Load(),
		Dirs:   dirs.Load(),
		Bytes:  bytes.Load(),
		Errors: failures.Load(),
	}, nil
}

// MeasureUnit measures the install folder of an installed app.
func MeasureUnit(ctx context.Context, u types.InstalledUnit) (Usage, error) {
	if u.InstallDir == "" {
		return Usage{}, types.WrapFS("measuring", u.RootPath, os.ErrNotExist)
	}
	return Measure(ctx, InstallPath(u.RootPath, u.InstallDir))
}
