package search

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/perg/internal/collector"
	pergerrors "github.com/Aman-CERP/perg/internal/errors"
	"github.com/Aman-CERP/perg/internal/watcher"
)

// watch rescans files that change under the include paths until ctx is
// cancelled. Each rescan reports every current match of the file.
func (s *Searcher) watch(ctx context.Context) error {
	wopts := s.opts.WatchOptions
	if wopts.Logger == nil {
		wopts.Logger = s.logger
	}

	w, err := watcher.New(s.cfg.Include, wopts)
	if err != nil {
		return pergerrors.New(pergerrors.ErrCodeInternal, "failed to start watching", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	s.logger.Info("watch_started", slog.Int("directories", w.WatchCount()))
	s.transition(StateWatching)

	for batch := range w.Batches() {
		queued := 0
		for _, path := range batch {
			if !collector.IsCandidate(path, s.cfg.Exclude) || s.isSkipped(path) {
				continue
			}
			s.submit(path)
			queued++
		}
		s.wg.Wait()
		s.flush()

		s.logger.Debug("rescan_finished",
			slog.Int("changed", len(batch)),
			slog.Int("scanned", queued))
	}

	<-done
	return nil
}
