// Package scan reads a file line by line and yields the lines that match a
// pattern.
package scan

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/Aman-CERP/perg/internal/pattern"
)

// Matcher tests lines. *pattern.Pattern implements it.
type Matcher interface {
	HasMatch(line string) bool
	FindFirst(line string) (pattern.Span, bool)
}

// Match is one matching line.
type Match struct {
	Path   string // File path as collected
	Line   int    // 1-based line number
	Text   string // Raw line without its trailing newline
	Start  int    // Byte offset of the first match in Text
	Length int    // Byte length of the first match
}

// Matched returns the text of the first match.
func (m Match) Matched() string {
	if m.Start < 0 || m.Start+m.Length > len(m.Text) {
		return ""
	}
	return m.Text[m.Start : m.Start+m.Length]
}

// Options configures a scan.
type Options struct {
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for skipped-file diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// File returns the matches in the file at path, in line order.
// A file that cannot be opened yields nothing; a read error ends the
// sequence early. Each call reads the file once.
func File(path string, m Matcher, opts ...Option) iter.Seq[Match] {
	o := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(Match) bool) {
		f, err := os.Open(path)
		if err != nil {
			o.Logger.Debug("file_skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return
		}
		defer func() { _ = f.Close() }()

		for match := range Reader(path, f, m, opts...) {
			if !yield(match) {
				return
			}
		}
	}
}

// Reader is like File but reads from r; path is only used to label the
// matches. Read errors other than EOF end the sequence.
func Reader(path string, r io.Reader, m Matcher, opts ...Option) iter.Seq[Match] {
	o := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(Match) bool) {
		br := bufio.NewReader(r)
		lineNumber := 0

		for {
			line, err := br.ReadString('\n')
			if len(line) > 0 {
				lineNumber++
				line = strings.TrimSuffix(line, "\n")

				if m.HasMatch(line) {
					match := Match{Path: path, Line: lineNumber, Text: line}
					if span, ok := m.FindFirst(line); ok {
						match.Start = span.Start
						match.Length = span.Length
					}
					if !yield(match) {
						return
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					o.Logger.Debug("file_read_failed",
						slog.String("path", path),
						slog.Int("line", lineNumber),
						slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}
