// Package export writes an app's cached manifests and unlock script into a
// per-app output folder.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
)

var logger = logging.Get("export")

// reserved are the characters not allowed in folder names on Windows.
var reserved = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeName makes name usable as a single path component.
func SanitizeName(name string) string {
	return reserved.Replace(name)
}

// ScriptName returns the script file name for appID.
func ScriptName(appID string) string {
	return fmt.Sprintf("script_%s.lua", appID)
}

// Request describes one export.
type Request struct {
	OutputDir string
	Name      string
	AppID     string
	Records   []types.ManifestRecord
	Script    string
}

// Result describes what was written.
type Result struct {
	Dir       string   `json:"dir" yaml:"dir"`
	Manifests []string `json:"manifests" yaml:"manifests"`
	Script    string   `json:"script" yaml:"script"`
	Bytes     int64    `json:"bytes" yaml:"bytes"`
}

// Save creates <OutputDir>/<sanitized Name>/, copies every record's
// manifest into it and writes the script. A missing manifest fails the
// export.
func Save(fs afero.Fs, req Request) (*Result, error) {
	if req.OutputDir == "" {
		return nil, fmt.Errorf("%w: empty output directory", types.ErrInvalidInput)
	}
	if req.AppID == "" {
		return nil, fmt.Errorf("%w: empty app id", types.ErrInvalidInput)
	}
	name := SanitizeName(req.Name)
	if strings.Trim(name, ". ") == "" {
		name = req.AppID
	}

	dir := filepath.Join(req.OutputDir, name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, types.WrapFS("creating", dir, err)
	}

	res := &Result{Dir: dir}
	for _, rec := range req.Records {
		dst := filepath.Join(dir, rec.File)
		n, err := copyFile(fs, rec.Path, dst)
		if err != nil {
			return nil, fmt.Errorf("manifest file not found or unreadable: %w", err)
		}
		res.Manifests = append(res.Manifests, dst)
		res.Bytes += n
	}

	scriptPath := filepath.Join(dir, ScriptName(req.AppID))
	if err := afero.WriteFile(fs, scriptPath, []byte(req.Script), 0o644); err != nil {
		return nil, types.WrapFS("writing", scriptPath, err)
	}
	res.Script = scriptPath
	res.Bytes += int64(len(req.Script))

	logger.Info("export complete", "app", req.AppID, "dir", dir, "manifests", len(res.Manifests))
	return res, nil
}

func copyFile(fs afero.Fs, src, dst string) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, types.WrapFS("opening", src, err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, types.WrapFS("creating", dst, err)
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, types.WrapFS("copying", src, err)
	}
	return n, nil
}
