package output

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/depotscan/pkg/depotscan/script"
)

// LuaFormatter writes the unlock script for a manifests view.
type LuaFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *LuaFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.View != ViewManifests {
		return fmt.Errorf("lua: %w: %s", ErrUnsupportedView, r.View)
	}
	text, err := script.Generate(r.AppID, r.Records)
	if err != nil {
		return err
	}
	w.WriteString(text)
	return nil
}

func init() {
	Register("lua", func() Formatter {
		return &LuaFormatter{}
	})
}

// Ensure LuaFormatter implements Formatter.
var _ Formatter = (*LuaFormatter)(nil)
