package output

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// Default templates per view. A custom template replaces all of them.
var defaultTemplates = map[View]string{
	ViewManifests: `{{range .Records}}{{.DepotID}}	{{.ManifestID}}	{{bytes .Size}}	{{.Path}}
{{end}}`,
	ViewUnits: `{{range .Units}}{{.AppID}}	{{.Name}}	{{size .SizeOnDisk}}	{{.RootPath}}
{{end}}`,
	ViewRoots: `{{range .Entries}}{{.Kind}}	{{.Path}}
{{end}}`,
}

// TemplateFormatter renders a Result through text/template. With no custom
// template it picks the default for the result's view.
type TemplateFormatter struct {
	custom string
	parsed map[string]*template.Template
	mu     sync.Mutex
}

// templateData exposes Result plus the computed totals.
type templateData struct {
	*Result
	TotalSize int64
	Keyed     int
}

// NewTemplateFormatter returns a formatter using text for every view. An
// empty text selects the per-view defaults.
func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{custom: text, parsed: make(map[string]*template.Template)}
}

// SetTemplate replaces the custom template.
func (f *TemplateFormatter) SetTemplate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custom = text
	clear(f.parsed)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{date .ModTime "2006-01-02"}}
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"bytes": func(size int64) string {
			return humanize.IBytes(uint64(size))
		},
		// size prints "-" for unknown sizes.
		"size": sizeOrDash,
		// {{key .DecryptionKey 8}} shortens a key, "-" when absent.
		"key": func(k string, n int) string {
			if k == "" {
				return "-"
			}
			if n > 0 && len(k) > n {
				return k[:n] + "…"
			}
			return k
		},
		"upper": strings.ToUpper,
	}
}

func (f *TemplateFormatter) lookup(v View) (*template.Template, error) {
	text := f.custom
	if text == "" {
		var ok bool
		if text, ok = defaultTemplates[v]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedView, v)
		}
	}
	if tmpl, ok := f.parsed[text]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New(string(v)).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, err
	}
	f.parsed[text] = tmpl
	return tmpl, nil
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmpl, err := f.lookup(r.View)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, templateData{
		Result:    r,
		TotalSize: r.TotalSize(),
		Keyed:     r.Keyed(),
	})
}

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter("")
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
