// Package scanner finds the cached depot manifests, decryption keys and
// installed apps of a local Steam client.
//
// A Scanner is built once from an immutable library snapshot; every query
// threads that snapshot into the stateless resolvers in this package, so
// the resolvers can also be called directly with explicit roots.
package scanner

import (
	"context"

	"github.com/jamesainslie/depotscan/pkg/depotscan/library"
	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var logger = logging.Get("scanner")

// Scanner answers queries against one library snapshot.
type Scanner struct {
	fs       afero.Fs
	platform locator.Platform
	snap     library.Snapshot

	// startup holds warnings raised while resolving libraries.
	startup []types.Warning
}

// New creates a Scanner over an already resolved snapshot.
func New(fs afero.Fs, p locator.Platform, snap library.Snapshot) *Scanner {
	if p == "" {
		p = locator.Current()
	}
	return &Scanner{fs: fs, platform: p, snap: snap}
}

// Initialize locates install roots and resolves their libraries.
// It returns an error wrapping types.ErrClientNotFound when no root exists.
func Initialize(ctx context.Context, fs afero.Fs, opts locator.Options) (*Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Platform == "" {
		opts.Platform = locator.Current()
	}

	roots, err := locator.Discover(fs, opts)
	if err != nil {
		return nil, err
	}

	snap, warnings := library.Resolve(fs, opts.Platform, roots)
	for _, w := range warnings {
		logger.Warn("library registry unreadable", "root", w.Root, "error", w.Message)
	}

	s := New(fs, opts.Platform, snap)
	s.startup = warnings
	return s, nil
}

// Snapshot returns the libraries the scanner queries.
func (s *Scanner) Snapshot() library.Snapshot {
	return s.snap
}

// Platform returns the platform used for path comparison.
func (s *Scanner) Platform() locator.Platform {
	return s.platform
}

// Fs returns the filesystem the scanner reads.
func (s *Scanner) Fs() afero.Fs {
	return s.fs
}

// StartupWarnings returns the warnings raised while resolving libraries.
func (s *Scanner) StartupWarnings() []types.Warning {
	return append([]types.Warning(nil), s.startup...)
}
