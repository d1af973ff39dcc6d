// Package config holds the settings of a search run.
package config

import (
	"fmt"
	"slices"
	"strings"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

// DefaultThreads is the worker count used when none is given.
const DefaultThreads = 4

// ColorMode selects when matches are highlighted.
type ColorMode string

const (
	ColorAlways ColorMode = "always"
	ColorAuto   ColorMode = "auto"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses a --color value. Matching is case-insensitive.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ColorAlways, ColorAuto, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("color must be 'always', 'auto' or 'never', got %q", s)
	}
}

// SearchConfig is the validated configuration of one run.
// It is built once and passed by value; nothing mutates it afterwards.
type SearchConfig struct {
	Term       string
	Literal    bool
	IgnoreCase bool

	// Include holds the files and directories to search, in order.
	Include []string

	// Exclude holds filename substrings. A file whose base name contains
	// any of them is skipped.
	Exclude []string

	// OutputFile receives matches instead of stdout when set.
	OutputFile string

	Threads int
	Color   ColorMode
	Watch   bool
	Stats   bool
}

// Option sets a SearchConfig field in New.
type Option func(*SearchConfig)

// WithLiteral treats the term as plain text.
func WithLiteral(literal bool) Option {
	return func(c *SearchConfig) { c.Literal = literal }
}

// WithIgnoreCase makes matching case-insensitive.
func WithIgnoreCase(ignoreCase bool) Option {
	return func(c *SearchConfig) { c.IgnoreCase = ignoreCase }
}

// WithExclude appends filename substrings to skip.
func WithExclude(patterns ...string) Option {
	return func(c *SearchConfig) { c.Exclude = append(c.Exclude, patterns...) }
}

// WithOutputFile writes matches to path.
func WithOutputFile(path string) Option {
	return func(c *SearchConfig) { c.OutputFile = path }
}

// WithThreads sets the worker count.
func WithThreads(n int) Option {
	return func(c *SearchConfig) { c.Threads = n }
}

// WithColor sets the highlight mode.
func WithColor(mode ColorMode) Option {
	return func(c *SearchConfig) { c.Color = mode }
}

// WithWatch keeps the run alive re-scanning changed files.
func WithWatch(watch bool) Option {
	return func(c *SearchConfig) { c.Watch = watch }
}

// WithStats prints a summary after the run.
func WithStats(stats bool) Option {
	return func(c *SearchConfig) { c.Stats = stats }
}

// New builds a SearchConfig with defaults applied.
// Slices are copied, and empty exclude patterns are dropped since they
// would match every file.
func New(term string, include []string, opts ...Option) SearchConfig {
	cfg := SearchConfig{
		Term:    term,
		Include: slices.Clone(include),
		Threads: DefaultThreads,
		Color:   ColorAlways,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Exclude = normalizeExcludes(cfg.Exclude)
	return cfg
}

func normalizeExcludes(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Validate checks the configuration. All failures are usage errors.
func (c SearchConfig) Validate() error {
	if c.Term == "" {
		return pergerrors.UsageError("a search term is required (-e)")
	}
	if len(c.Include) == 0 {
		return pergerrors.UsageError("at least one file or directory is required (-f)")
	}
	if slices.Contains(c.Include, "") {
		return pergerrors.UsageError("file paths must not be empty")
	}
	if c.Threads < 1 {
		return pergerrors.UsageError(fmt.Sprintf("threads must be at least 1, got %d", c.Threads))
	}
	if _, err := ParseColorMode(string(c.Color)); err != nil {
		return pergerrors.UsageError(err.Error())
	}
	return nil
}

// UseColor resolves the color mode against the output destination.
func (c SearchConfig) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorNever:
		return false
	case ColorAuto:
		return isTerminal
	default:
		return true
	}
}
