// Package output writes perg's human-facing messages to stderr: the run
// summary and watch-mode notices. Match lines never go through here.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorYellow = "220"
	colorGray   = "245"
	colorWhite  = "255"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer

	label   lipgloss.Style
	value   lipgloss.Style
	warning lipgloss.Style
}

// New creates a Writer on out. Styling follows out's capabilities, so a
// pipe or a buffer gets plain text.
func New(out io.Writer) *Writer {
	r := lipgloss.NewRenderer(out)
	return &Writer{
		out:     out,
		label:   r.NewStyle().Foreground(lipgloss.Color(colorGray)),
		value:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorWhite)),
		warning: r.NewStyle().Foreground(lipgloss.Color(colorYellow)),
	}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.warning.Render(msg))
}

// Raw prints msg unchanged.
func (w *Writer) Raw(msg string) {
	_, _ = io.WriteString(w.out, msg)
}

// Summary prints the one-line run summary:
//
//	perg: 3 matches in 2 of 10 files (12ms)
func (w *Writer) Summary(matches, matchedFiles, files int64, elapsed time.Duration) {
	_, _ = fmt.Fprintf(w.out, "%s %s %s %s %s %s %s %s\n",
		w.label.Render("perg:"),
		w.value.Render(fmt.Sprint(matches)),
		w.label.Render(plural(matches, "match", "matches")+" in"),
		w.value.Render(fmt.Sprint(matchedFiles)),
		w.label.Render("of"),
		w.value.Render(fmt.Sprint(files)),
		w.label.Render(plural(files, "file", "files")),
		w.label.Render("("+formatDuration(elapsed)+")"),
	)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatDuration rounds to a readable precision.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
