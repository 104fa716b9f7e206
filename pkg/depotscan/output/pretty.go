package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	switch r.View {
	case ViewUnits:
		w.WriteString(f.formatUnits(r))
	case ViewRoots:
		w.WriteString(f.formatRoots(r))
	default:
		w.WriteString(f.formatRecords(r))
	}

	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	switch r.View {
	case ViewUnits:
		lines = append(lines, TitleStyle.Render("Installed apps"))
	case ViewRoots:
		lines = append(lines, TitleStyle.Render("Steam libraries"))
	default:
		title := r.AppID
		if r.Name != "" {
			title = fmt.Sprintf("%s (%s)", r.Name, r.AppID)
		}
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("App:"), ValueStyle.Render(title)))

		depots := MutedStyle.Render("none")
		if len(r.Depots) > 0 {
			depots = ValueStyle.Render(strings.Join(r.Depots, ", "))
		}
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Depots:"), depots))
	}

	if r.Elapsed > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Took:"), MutedStyle.Render(formatDuration(r.Elapsed))))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatRecords(r *Result) string {
	if len(r.Records) == 0 {
		return MutedStyle.Render("  No cached manifests found") + "\n"
	}

	sizes := make([]string, len(r.Records))
	depotW, manifestW, sizeW := len("DEPOT"), len("MANIFEST"), len("SIZE")
	for i, rec := range r.Records {
		sizes[i] = humanize.IBytes(uint64(rec.Size))
		depotW = max(depotW, len(rec.DepotID))
		manifestW = max(manifestW, len(rec.ManifestID))
		sizeW = max(sizeW, len(sizes[i]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("DEPOT", depotW)),
		TableHeaderStyle.Render(padRight("MANIFEST", manifestW)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeW)),
		TableHeaderStyle.Render("KEY"),
		TableHeaderStyle.Render("PATH"))

	for i, rec := range r.Records {
		key := MutedStyle.Render("-  ")
		if rec.HasKey() {
			key = KeyStyle.Render("yes")
		}
		fmt.Fprintf(&sb, "  %s  %s  %s  %s  %s\n",
			ValueStyle.Render(padRight(rec.DepotID, depotW)),
			ValueStyle.Render(padRight(rec.ManifestID, manifestW)),
			SizeStyle.Render(padLeft(sizes[i], sizeW)),
			key,
			PathStyle.Render(rec.Path))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatUnits(r *Result) string {
	if len(r.Units) == 0 {
		return MutedStyle.Render("  No installed apps found") + "\n"
	}

	idW, nameW, sizeW := len("APPID"), len("NAME"), len("SIZE")
	sizes := make([]string, len(r.Units))
	for i, u := range r.Units {
		sizes[i] = sizeOrDash(u.SizeOnDisk)
		idW = max(idW, len(u.AppID))
		nameW = max(nameW, len(u.Name))
		sizeW = max(sizeW, len(sizes[i]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("APPID", idW)),
		TableHeaderStyle.Render(padRight("NAME", nameW)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeW)),
		TableHeaderStyle.Render("LIBRARY"))

	for i, u := range r.Units {
		fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
			ValueStyle.Render(padRight(u.AppID, idW)),
			ValueStyle.Render(padRight(u.Name, nameW)),
			SizeStyle.Render(padLeft(sizes[i], sizeW)),
			PathStyle.Render(u.RootPath))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatRoots(r *Result) string {
	if len(r.Libraries) == 0 {
		return MutedStyle.Render("  No libraries found") + "\n"
	}

	_, rows := r.table()
	var sb strings.Builder
	for _, row := range rows {
		kind := MutedStyle.Render(padRight(row[0], len("library")))
		if row[0] == "install" {
			kind = SuccessStyle.Render(padRight(row[0], len("library")))
		}
		fmt.Fprintf(&sb, "  %s  %s\n", kind, PathStyle.Render(row[1]))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	switch r.View {
	case ViewUnits:
		parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Apps:"), ValueStyle.Render(fmt.Sprint(len(r.Units)))))
		if total := r.TotalSize(); total > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Total:"), SizeStyle.Render(humanize.IBytes(uint64(total)))))
		}
	case ViewRoots:
		parts = append(parts,
			fmt.Sprintf("%s %s", LabelStyle.Render("Install roots:"), ValueStyle.Render(fmt.Sprint(len(r.Roots)))),
			fmt.Sprintf("%s %s", LabelStyle.Render("Libraries:"), ValueStyle.Render(fmt.Sprint(len(r.Libraries)))))
	default:
		parts = append(parts,
			fmt.Sprintf("%s %s", LabelStyle.Render("Manifests:"), ValueStyle.Render(fmt.Sprint(len(r.Records)))),
			fmt.Sprintf("%s %s", LabelStyle.Render("Keyed:"), KeyStyle.Render(fmt.Sprint(r.Keyed()))),
			fmt.Sprintf("%s %s", LabelStyle.Render("Total:"), SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize())))))
		if len(r.Records) > 0 {
			parts = append(parts, MutedStyle.Render("Use -o lua for the unlock script"))
		}
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(r *Result) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, w := range r.Warnings {
		sb.WriteString(WarningStyle.Render("  " + w.String()))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
