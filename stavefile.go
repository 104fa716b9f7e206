//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
)

// Default target when running `stave` with no arguments.
var Default = Build

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"i": Install,
	"c": Clean,
	"x": Cross,
}

const (
	binaryName = "depotscan"
	mainPkg    = "./cmd/depotscan"
	binDir     = "bin"
)

// Steam ships for these three; the locator has defaults for each.
var crossTargets = []struct{ goos, goarch string }{
	{"windows", "amd64"},
	{"darwin", "arm64"},
	{"darwin", "amd64"},
	{"linux", "amd64"},
}

// All runs the complete build pipeline.
func All() error {
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Build compiles the depotscan binary for the host.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", binaryPath(runtime.GOOS, ""), mainPkg)
}

// Cross builds release binaries for every supported desktop platform.
func Cross() error {
	ldflags := buildLdflags()
	for _, t := range crossTargets {
		out := binaryPath(t.goos, t.goos+"-"+t.goarch)
		if st.Verbose() {
			fmt.Printf("Building %s\n", out)
		}
		env := map[string]string{"GOOS": t.goos, "GOARCH": t.goarch, "CGO_ENABLED": "0"}
		if err := sh.RunWithV(env, "go", "build", "-ldflags", ldflags, "-o", out, mainPkg); err != nil {
			return fmt.Errorf("building %s/%s: %w", t.goos, t.goarch, err)
		}
	}
	return nil
}

// Install builds and copies depotscan into GOBIN, GOPATH/bin or /usr/local/bin.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = "/usr/local/bin"
		if gopath != "" {
			bin = filepath.Join(gopath, "bin")
		}
	}

	dst := filepath.Join(bin, filepath.Base(binaryPath(runtime.GOOS, "")))
	if st.Verbose() {
		fmt.Printf("Installing %s\n", dst)
	}
	return sh.Copy(dst, binaryPath(runtime.GOOS, ""))
}

// Test runs all tests with race detection and coverage.
func Test() error {
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort skips the slow cache expiry and watcher tests.
func TestShort() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if st.Verbose() {
		fmt.Printf("Removing %s/\n", binDir)
	}
	return sh.Rm(binDir + "/")
}

// Fmt formats all Go code.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("running gofmt: %w", err)
	}
	return sh.Run("goimports", "-w", ".")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// binaryPath returns bin/depotscan[-suffix][.exe].
func binaryPath(goos, suffix string) string {
	name := binaryName
	if suffix != "" {
		name += "-" + suffix
	}
	if goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(binDir, name)
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version := "dev"
	commit := "unknown"
	date := time.Now().UTC().Format(time.RFC3339)

	if v, err := sh.Output("git", "describe", "--tags", "--always"); err == nil && v != "" {
		version = strings.TrimSpace(v)
	}
	if c, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil && c != "" {
		commit = strings.TrimSpace(c)
	}

	return fmt.Sprintf("-s -w -X main.version=%s -X main.commit=%s -X main.date=%s", version, commit, date)
}
