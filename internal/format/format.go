// Package format renders matches as output lines.
package format

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/Aman-CERP/perg/internal/scan"
)

// Formatter renders "<file>:<line>: <text>" records, wrapping the matched
// text in a yellow highlight when color is enabled.
// A Formatter is immutable and safe for concurrent use.
type Formatter struct {
	highlight *color.Color
}

// New creates a Formatter. With useColor false lines are emitted as-is.
func New(useColor bool) *Formatter {
	f := &Formatter{}
	if useColor {
		// Forced on: the highlight does not depend on where output goes
		f.highlight = color.New(color.FgYellow)
		f.highlight.EnableColor()
	}
	return f
}

// Format renders m.
//
// The highlight wraps the first occurrence of the matched text found by a
// plain substring search of the line, which is not necessarily the span the
// regular expression matched (for example "a$" on "a ba").
func (f *Formatter) Format(m scan.Match) string {
	var sb strings.Builder
	sb.Grow(len(m.Path) + len(m.Text) + 24)

	sb.WriteString(m.Path)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(m.Line))
	sb.WriteString(": ")
	sb.WriteString(f.Highlight(m.Text, m.Matched()))

	return sb.String()
}

// Highlight wraps the first occurrence of matched in line. An empty match
// occurs at the start of the line and yields an empty highlight there; text
// not present in line leaves it unchanged.
func (f *Formatter) Highlight(line, matched string) string {
	if f.highlight == nil {
		return line
	}

	pos := strings.Index(line, matched)
	if pos < 0 {
		return line
	}

	return line[:pos] + f.highlight.Sprint(matched) + line[pos+len(matched):]
}
