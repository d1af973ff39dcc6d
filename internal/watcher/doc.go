// Package watcher reports files that were created or modified under a set
// of paths.
//
// Raw fsnotify events are debounced so that an editor saving a file several
// times in a row results in one batch. Each batch lists the affected paths
// once, sorted, and never includes paths that were deleted by the end of
// the window.
//
// Usage:
//
//	w, err := watcher.New([]string{"src", "notes.txt"}, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	go w.Run(ctx)
//
//	for batch := range w.Batches() {
//	    // rescan batch
//	}
package watcher
