package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

// FileConfig holds defaults read from a --config YAML file.
// Zero values mean "not set".
type FileConfig struct {
	Threads    int      `yaml:"threads"`
	Exclude    []string `yaml:"exclude"`
	IgnoreCase bool     `yaml:"ignore_case"`
	Literal    bool     `yaml:"literal"`
	Color      string   `yaml:"color"`
	LogLevel   string   `yaml:"log_level"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// LoadFile reads and validates the YAML file at path.
// Unknown keys are rejected so typos do not pass silently.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pergerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err).
			WithDetail("path", path)
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, pergerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	if err := fc.Validate(); err != nil {
		return nil, pergerrors.ConfigError(fmt.Sprintf("invalid config file %s", path), err).
			WithDetail("path", path)
	}
	return &fc, nil
}

// Validate checks the values that were set.
func (fc *FileConfig) Validate() error {
	if fc.Threads < 0 {
		return fmt.Errorf("threads must be at least 1, got %d", fc.Threads)
	}
	if fc.Color != "" {
		if _, err := ParseColorMode(fc.Color); err != nil {
			return err
		}
	}
	if fc.LogLevel != "" && !validLogLevels[strings.ToLower(fc.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn' or 'error', got %s", fc.LogLevel)
	}
	return nil
}

// Apply merges the file values into base. changed reports whether a CLI
// flag was given explicitly; explicit flags win over the file. Excludes
// from the file are added to the CLI ones.
func (fc *FileConfig) Apply(base SearchConfig, changed func(flag string) bool) SearchConfig {
	cfg := base
	cfg.Include = append([]string(nil), base.Include...)

	if fc.Threads != 0 && !changed("threads") {
		cfg.Threads = fc.Threads
	}
	if fc.IgnoreCase && !changed("ignore-case") {
		cfg.IgnoreCase = true
	}
	if fc.Literal && !changed("literal") {
		cfg.Literal = true
	}
	if fc.Color != "" && !changed("color") {
		// Validated by LoadFile
		cfg.Color, _ = ParseColorMode(fc.Color)
	}

	excludes := append(append([]string(nil), base.Exclude...), fc.Exclude...)
	cfg.Exclude = normalizeExcludes(excludes)
	return cfg
}
