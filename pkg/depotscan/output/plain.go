package output

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// PlainFormatter formats output as an aligned table without colors,
// suitable for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	header, rows := r.table()
	if _, err := tw.Write([]byte(strings.Join(header, "\t") + "\n")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := tw.Write([]byte(strings.Join(row, "\t") + "\n")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
