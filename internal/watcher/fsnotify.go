package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches include paths with fsnotify. Directories are watched
// recursively, including directories created later. Files are watched
// through their parent directory so editors that replace the file on save
// are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger

	mu        sync.Mutex
	recursive map[string]bool     // directories whose whole content is watched
	files     map[string]struct{} // single files watched via their parent
	stopped   bool
}

// New creates a watcher for includePaths. Paths that do not exist are
// skipped.
func New(includePaths []string, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.BatchBufferSize),
		logger:    opts.Logger,
		recursive: make(map[string]bool),
		files:     make(map[string]struct{}),
	}

	for _, path := range includePaths {
		info, err := os.Stat(path)
		if err != nil {
			w.logger.Debug("watch_path_skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		switch {
		case info.IsDir():
			w.addTree(path)
		case info.Mode().IsRegular():
			w.addFile(path)
		default:
			w.logger.Debug("watch_path_skipped",
				slog.String("path", path),
				slog.String("reason", "not a regular file or directory"))
		}
	}

	return w, nil
}

// addTree watches root and every directory below it. Symlinked
// directories below root are not followed.
func (w *Watcher) addTree(root string) {
	walkRoot := root
	if info, err := os.Lstat(root); err == nil && info.Mode()&os.ModeSymlink != 0 {
		walkRoot = root + string(filepath.Separator)
	}

	_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		dir := filepath.Clean(path)
		if err := w.fsWatcher.Add(dir); err != nil {
			w.logger.Debug("watch_add_failed",
				slog.String("path", dir),
				slog.String("error", err.Error()))
			return filepath.SkipDir
		}

		w.mu.Lock()
		w.recursive[dir] = true
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) addFile(path string) {
	clean := filepath.Clean(path)
	parent := filepath.Dir(clean)

	if err := w.fsWatcher.Add(parent); err != nil {
		w.logger.Debug("watch_add_failed",
			slog.String("path", parent),
			slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	w.files[clean] = struct{}{}
	w.mu.Unlock()
}

// Run processes file system events until ctx is cancelled or Stop is
// called, then stops the watcher, which closes Batches.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.tracks(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Lstat(path); err == nil && info.IsDir() {
			w.addTree(path)
			w.addExisting(path)
			return
		}
		w.debouncer.Add(path, OpCreate)
	case event.Has(fsnotify.Write):
		w.debouncer.Add(path, OpModify)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.recursive, path)
		w.mu.Unlock()
		w.debouncer.Add(path, OpDelete)
	}
}

// tracks reports whether path is one of the watched files or lies
// directly inside a recursively watched directory.
func (w *Watcher) tracks(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.recursive[filepath.Dir(path)] {
		return true
	}
	_, ok := w.files[path]
	return ok
}

// addExisting reports files that appeared in a new directory before its
// watch was in place.
func (w *Watcher) addExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			w.debouncer.Add(filepath.Clean(path), OpCreate)
		}
		return nil
	})
}

// Batches returns the channel of changed paths. It is closed once the
// watcher stops.
func (w *Watcher) Batches() <-chan []string {
	return w.debouncer.Output()
}

// WatchCount returns the number of directories registered with fsnotify.
func (w *Watcher) WatchCount() int {
	return len(w.fsWatcher.WatchList())
}

// Stop releases the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
