// Package pattern compiles a search term into an immutable line matcher.
//
// Terms are regular expressions in ECMAScript syntax (lookahead and
// backreferences included), or exact substrings in literal mode. A compiled
// Pattern is safe for concurrent use by any number of scanning workers.
package pattern

import (
	"strings"

	"github.com/dlclark/regexp2"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

// Span locates a match inside a line, in bytes.
type Span struct {
	Start  int
	Length int
}

// Pattern is a compiled search term.
type Pattern struct {
	re         *regexp2.Regexp
	term       string
	literal    bool
	ignoreCase bool
}

// metaEscaper escapes the characters that carry meaning at the top level of
// an ECMAScript pattern.
var metaEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`^`, `\^`,
	`$`, `\$`,
	`*`, `\*`,
	`+`, `\+`,
	`?`, `\?`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`{`, `\{`,
	`|`, `\|`,
)

// EscapeLiteral returns term with every regular expression metacharacter
// escaped, so it matches itself exactly.
func EscapeLiteral(term string) string {
	return metaEscaper.Replace(term)
}

// Compile builds a Pattern from term.
// In literal mode the term is escaped first; otherwise an invalid expression
// fails with an error matching errors.ErrInvalidPattern.
func Compile(term string, literal, ignoreCase bool) (*Pattern, error) {
	expr := term
	if literal {
		expr = EscapeLiteral(term)
	}

	var opts regexp2.RegexOptions = regexp2.ECMAScript
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, pergerrors.PatternError(term, err)
	}

	return &Pattern{
		re:         re,
		term:       term,
		literal:    literal,
		ignoreCase: ignoreCase,
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level patterns.
func MustCompile(term string, literal, ignoreCase bool) *Pattern {
	p, err := Compile(term, literal, ignoreCase)
	if err != nil {
		panic(err)
	}
	return p
}

// Term returns the term the pattern was compiled from.
func (p *Pattern) Term() string { return p.term }

// Literal reports whether the pattern was compiled in literal mode.
func (p *Pattern) Literal() bool { return p.literal }

// IgnoreCase reports whether matching ignores letter case.
func (p *Pattern) IgnoreCase() bool { return p.ignoreCase }

// HasMatch reports whether line contains a match.
func (p *Pattern) HasMatch(line string) bool {
	ok, err := p.re.MatchString(line)
	// regexp2 only errors on match timeout, and no timeout is set
	return err == nil && ok
}

// FindFirst returns the leftmost match in line.
func (p *Pattern) FindFirst(line string) (Span, bool) {
	m, err := p.re.FindStringMatch(line)
	if err != nil || m == nil {
		return Span{}, false
	}

	start, end := byteOffsets(line, m.Index, m.Index+m.Length)
	return Span{Start: start, Length: end - start}, true
}

// byteOffsets converts rune indexes, as reported by regexp2, into byte
// offsets into s. Ranging over s decodes exactly like the []rune conversion
// regexp2 performs, so invalid UTF-8 bytes count as one rune each.
func byteOffsets(s string, runeStart, runeEnd int) (int, int) {
	start, end := len(s), len(s)
	n := 0
	for i := range s {
		if n == runeStart {
			start = i
		}
		if n == runeEnd {
			end = i
			return start, end
		}
		n++
	}
	return start, end
}
