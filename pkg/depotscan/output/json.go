package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
)

// document is the structure written by the json and yaml formatters.
type document struct {
	View      View                    `json:"view" yaml:"view"`
	AppID     string                  `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Name      string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Depots    []string                `json:"depots,omitempty" yaml:"depots,omitempty"`
	Records   *[]types.ManifestRecord `json:"records,omitempty" yaml:"records,omitempty"`
	Units     []types.InstalledUnit   `json:"units,omitempty" yaml:"units,omitempty"`
	Roots     []string                `json:"roots,omitempty" yaml:"roots,omitempty"`
	Libraries []string                `json:"libraries,omitempty" yaml:"libraries,omitempty"`
	Warnings  []types.Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Meta      documentMeta            `json:"meta" yaml:"meta"`
}

type documentMeta struct {
	Count        int    `json:"count" yaml:"count"`
	Keyed        int    `json:"keyed,omitempty" yaml:"keyed,omitempty"`
	TotalSize    int64  `json:"total_size" yaml:"total_size"`
	RootsScanned int    `json:"roots_scanned,omitempty" yaml:"roots_scanned,omitempty"`
	Elapsed      string `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
}

func buildDocument(r *Result) document {
	doc := document{
		View:      r.View,
		AppID:     r.AppID,
		Name:      r.Name,
		Depots:    r.Depots,
		Units:     r.Units,
		Roots:     r.Roots,
		Libraries: r.Libraries,
		Warnings:  r.Warnings,
		Meta: documentMeta{
			Count:        r.Len(),
			Keyed:        r.Keyed(),
			TotalSize:    r.TotalSize(),
			RootsScanned: r.RootsScanned,
			Elapsed:      formatDurationString(r.Elapsed),
		},
	}
	// Manifest views always carry a records array, even when empty; other
	// views carry none.
	if doc.View == ViewManifests {
		records := r.Records
		if records == nil {
			records = []types.ManifestRecord{}
		}
		doc.Records = &records
	}
	return doc
}

// formatDurationString formats a duration for structured output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per row: a manifest
// record, an installed app, or a library path.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	var rows []any
	switch r.View {
	case ViewUnits:
		for _, u := range r.Units {
			rows = append(rows, u)
		}
	case ViewRoots:
		for _, e := range r.Entries() {
			rows = append(rows, e)
		}
	default:
		for _, rec := range r.Records {
			rows = append(rows, rec)
		}
	}

	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
