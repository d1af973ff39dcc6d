// Package collector expands include paths into the flat list of regular
// files a search will scan.
//
// Directories are walked recursively in lexical order. Files whose name
// contains any exclude substring are dropped; missing paths and special
// files are skipped without error.
package collector

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

// DefaultConcurrency is the number of include paths walked at once when no
// limit is configured.
const DefaultConcurrency = 4

// Options configures a collection.
type Options struct {
	// Concurrency bounds how many include paths are walked in parallel.
	Concurrency int

	// Logger receives debug records for skipped paths.
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithConcurrency sets the number of include paths walked in parallel.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Collect returns the candidate files under includePaths, minus those whose
// filename contains one of excludePatterns. Results keep include-path order,
// lexical order within a directory, and list every file once.
// The only error returned is ctx's.
func Collect(ctx context.Context, includePaths, excludePatterns []string, opts ...Option) ([]string, error) {
	o := Options{
		Concurrency: DefaultConcurrency,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}

	perPath := make([][]string, len(includePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)

	for i, root := range includePaths {
		g.Go(func() error {
			files, err := collectPath(gctx, root, excludePatterns, o.Logger)
			if err != nil {
				return err
			}
			perPath[i] = files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var result []string
	for _, files := range perPath {
		for _, f := range files {
			key := filepath.Clean(f)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, f)
		}
	}

	return result, nil
}

// IsExcluded reports whether the filename component of path contains any of
// the exclude patterns. Matching is plain substring containment.
func IsExcluded(path string, excludePatterns []string) bool {
	name := filepath.Base(path)
	for _, pattern := range excludePatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

// IsCandidate reports whether path currently names a regular file (after
// following symlinks) that is not excluded.
func IsCandidate(path string, excludePatterns []string) bool {
	if IsExcluded(path, excludePatterns) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// collectPath expands a single include path.
func collectPath(ctx context.Context, root string, excludePatterns []string, logger *slog.Logger) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			skipErr := pergerrors.New(pergerrors.ErrCodeFileNotFound, "include path not found", err).
				WithDetail("path", root)
			logger.LogAttrs(ctx, slog.LevelDebug, "include_path_skipped", pergerrors.FormatForLog(skipErr)...)
			return nil, nil
		}
		logger.Debug("include_path_skipped",
			slog.String("path", root),
			slog.String("reason", err.Error()))
		return nil, nil
	}

	switch {
	case info.Mode().IsRegular():
		if IsExcluded(root, excludePatterns) {
			return nil, nil
		}
		return []string{root}, nil
	case info.IsDir():
		return walkDir(ctx, root, excludePatterns, logger)
	default:
		logger.Debug("include_path_skipped",
			slog.String("path", root),
			slog.String("reason", "not a regular file or directory"))
		return nil, nil
	}
}

// walkDir recursively lists the regular files below root.
func walkDir(ctx context.Context, root string, excludePatterns []string, logger *slog.Logger) ([]string, error) {
	// WalkDir does not descend into a symlinked root; a trailing separator
	// makes the lstat follow it.
	walkRoot := root
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		walkRoot = root + string(filepath.Separator)
	}

	var files []string
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Skip entries we can't access
			logger.Debug("walk_entry_skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() && path != walkRoot {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// Symlinks count when they resolve to regular files; symlinked
		// directories are not followed.
		if d.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		if IsExcluded(path, excludePatterns) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
