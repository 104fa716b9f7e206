// Package locator finds Steam install roots on the host.
//
// Candidates are platform specific and pure: the caller checks which of them
// exist through an afero.Fs, so discovery can run against an in-memory
// filesystem in tests.
package locator

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var logger = logging.Get("locator")

// Platform is one of the desktop platforms Steam ships for.
type Platform string

// Supported platforms.
const (
	Windows Platform = "windows"
	Darwin  Platform = "darwin"
	Linux   Platform = "linux"
)

// ParsePlatform maps a GOOS-style (or Node-style "win32") name to a
// Platform. Unknown names report false.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win32":
		return Windows, true
	case "darwin", "macos", "mac":
		return Darwin, true
	case "linux":
		return Linux, true
	default:
		return Platform(s), false
	}
}

// Current returns the platform of the running binary.
func Current() Platform {
	return Platform(runtime.GOOS)
}

// Candidates returns the default install roots for a platform in
// preference order. An unrecognized platform yields nil.
func Candidates(p Platform, home string) []string {
	switch p {
	case Windows:
		return []string{
			`C:\Program Files (x86)\Steam`,
			`C:\Program Files\Steam`,
		}
	case Darwin:
		return []string{
			filepath.Join(home, "Library", "Application Support", "Steam"),
		}
	case Linux:
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".steam", "root"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", "data", "Steam"),
		}
	default:
		return nil
	}
}

// Options configures install-root discovery.
type Options struct {
	// Platform selects the candidate set. Empty means Current().
	Platform Platform

	// Home is the user's home directory used to build candidates.
	Home string

	// Extra roots are checked before the platform defaults.
	Extra []string

	// Registry enables the Windows registry lookup.
	Registry bool
}

// CandidatesFor combines extra roots, registry roots (Windows only) and
// the platform defaults.
func CandidatesFor(opts Options) []string {
	p := opts.Platform
	if p == "" {
		p = Current()
	}

	var out []string
	out = append(out, opts.Extra...)
	if opts.Registry && p == Windows {
		out = append(out, registryRoots()...)
	}
	out = append(out, Candidates(p, opts.Home)...)
	return out
}

// Locate returns the candidates that exist, deduplicated by normalized
// path, in candidate order. No surviving root is ErrClientNotFound.
func Locate(fs afero.Fs, p Platform, candidates []string) ([]string, error) {
	seen := make(map[string]struct{})
	var roots []string

	for _, c := range candidates {
		if c == "" {
			continue
		}
		key := Normalize(p, c)
		if _, dup := seen[key]; dup {
			continue
		}
		ok, err := afero.DirExists(fs, c)
		if err != nil {
			logger.Warn("failed to check install root", "path", c, "error", err)
			continue
		}
		if !ok {
			logger.Debug("install root candidate missing", "path", c)
			continue
		}
		seen[key] = struct{}{}
		roots = append(roots, c)
		logger.Info("found steam install root", "path", c)
	}

	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: checked %d candidate path(s)", types.ErrClientNotFound, len(candidates))
	}
	return roots, nil
}

// Discover is CandidatesFor followed by Locate.
func Discover(fs afero.Fs, opts Options) ([]string, error) {
	p := opts.Platform
	if p == "" {
		p = Current()
	}
	return Locate(fs, p, CandidatesFor(opts))
}

// Normalize returns the comparison key for a path: cleaned, without a
// trailing separator, case-folded on Windows.
func Normalize(p Platform, path string) string {
	if p == Windows {
		s := strings.ReplaceAll(path, "/", `\`)
		s = strings.TrimRight(s, `\`)
		return strings.ToLower(s)
	}
	return filepath.Clean(path)
}
