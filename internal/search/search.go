// Package search runs a search: it collects candidate files, scans them on a
// fixed pool of workers and writes every matching line to one sink.
package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/Aman-CERP/perg/internal/collector"
	"github.com/Aman-CERP/perg/internal/config"
	pergerrors "github.com/Aman-CERP/perg/internal/errors"
	"github.com/Aman-CERP/perg/internal/format"
	"github.com/Aman-CERP/perg/internal/pattern"
	"github.com/Aman-CERP/perg/internal/scan"
	"github.com/Aman-CERP/perg/internal/sink"
	"github.com/Aman-CERP/perg/internal/watcher"
)

// Options configures a Searcher.
type Options struct {
	Logger       *slog.Logger
	WatchOptions watcher.Options
	OnState      func(State)
	SkipPaths    []string
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithWatchOptions configures the watcher used in watch mode.
func WithWatchOptions(opts watcher.Options) Option {
	return func(o *Options) {
		o.WatchOptions = opts
	}
}

// WithSkipPaths names files that are never scanned, such as the log file.
func WithSkipPaths(paths ...string) Option {
	return func(o *Options) {
		o.SkipPaths = append(o.SkipPaths, paths...)
	}
}

// WithStateHook registers fn to be called on every state change, from the
// goroutine running the search.
func WithStateHook(fn func(State)) Option {
	return func(o *Options) {
		o.OnState = fn
	}
}

// Searcher runs one search. Create it with New, then call Run once.
type Searcher struct {
	cfg       config.SearchConfig
	pattern   *pattern.Pattern
	sink      *sink.Sink
	formatter *format.Formatter
	pool      *ants.Pool
	wg        sync.WaitGroup
	logger    *slog.Logger
	opts      Options
	runID     string

	// skip identifies the output file and other files never to scan.
	skip []os.FileInfo

	mu    sync.Mutex
	state State

	files        atomic.Int64
	matchedFiles atomic.Int64
	matches      atomic.Int64
	writeFailed  atomic.Bool
}

// New validates cfg, compiles the pattern and opens the output. Any error
// here is fatal and nothing has been written to the output.
func New(cfg config.SearchConfig, stdout io.Writer, opts ...Option) (*Searcher, error) {
	o := Options{
		Logger:       slog.Default(),
		WatchOptions: watcher.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	runID := uuid.NewString()
	s := &Searcher{
		cfg:    cfg,
		opts:   o,
		runID:  runID,
		logger: o.Logger.With(slog.String("run_id", runID)),
		state:  StateInitializing,
	}
	s.notify(StateInitializing)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := pattern.Compile(cfg.Term, cfg.Literal, cfg.IgnoreCase)
	if err != nil {
		return nil, err
	}
	s.pattern = p

	out, err := sink.Open(cfg.OutputFile, stdout)
	if err != nil {
		return nil, err
	}
	s.sink = out
	s.formatter = format.New(cfg.UseColor(out.IsTerminal()))

	if f := out.File(); f != nil {
		if info, err := f.Stat(); err == nil {
			s.skip = append(s.skip, info)
		}
	}
	for _, path := range o.SkipPaths {
		if info, err := os.Stat(path); err == nil {
			s.skip = append(s.skip, info)
		}
	}

	pool, err := ants.NewPool(cfg.Threads)
	if err != nil {
		_ = out.Close()
		return nil, pergerrors.New(pergerrors.ErrCodeInternal, "failed to start worker pool", err)
	}
	s.pool = pool

	return s, nil
}

// Run executes the search and returns its statistics. In watch mode it
// keeps rescanning changed files until ctx is cancelled.
func (s *Searcher) Run(ctx context.Context) (Stats, error) {
	if s.State() != StateInitializing {
		return Stats{}, pergerrors.New(pergerrors.ErrCodeInternal, "search already ran", nil)
	}

	start := time.Now()
	s.logger.Info("search_started",
		slog.String("term", s.pattern.Term()),
		slog.Bool("literal", s.pattern.Literal()),
		slog.Bool("ignore_case", s.pattern.IgnoreCase()),
		slog.String("output", s.sink.Path()),
		slog.Int("paths", len(s.cfg.Include)),
		slog.Int("threads", s.cfg.Threads),
		slog.Bool("watch", s.cfg.Watch))

	err := s.run(ctx)

	s.transition(StateClosing)
	s.pool.Release()
	if cerr := s.sink.Close(); cerr != nil && !s.writeFailed.Load() {
		s.logger.Warn("output_close_failed", slog.String("error", cerr.Error()))
	}

	stats := s.Stats()
	stats.Duration = time.Since(start)
	s.transition(StateDone)

	s.logger.Info("search_finished",
		slog.Int64("files", stats.Files),
		slog.Int64("matched_files", stats.MatchedFiles),
		slog.Int64("matches", stats.Matches),
		slog.Duration("duration", stats.Duration))

	return stats, err
}

func (s *Searcher) run(ctx context.Context) error {
	s.transition(StateCollecting)
	files, err := collector.Collect(ctx, s.cfg.Include, s.cfg.Exclude,
		collector.WithConcurrency(s.cfg.Threads),
		collector.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}
	s.logger.Debug("files_collected", slog.Int("count", len(files)))

	s.transition(StateScanning)
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		if s.isSkipped(path) {
			s.logger.Debug("file_skipped",
				slog.String("path", path),
				slog.String("reason", "written by this run"))
			continue
		}
		s.submit(path)
	}

	s.transition(StateDraining)
	s.wg.Wait()
	s.flush()

	if err := ctx.Err(); err != nil {
		return err
	}

	if s.cfg.Watch {
		return s.watch(ctx)
	}
	return nil
}

// submit queues path on the pool. Submit blocks while all workers are busy.
func (s *Searcher) submit(path string) {
	s.wg.Add(1)
	if err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.scanFile(path)
	}); err != nil {
		s.wg.Done()
		s.logger.Warn("scan_submit_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

func (s *Searcher) scanFile(path string) {
	s.files.Add(1)

	var found int64
	for m := range scan.File(path, s.pattern, scan.WithLogger(s.logger)) {
		found++
		if err := s.sink.WriteLine(s.formatter.Format(m)); err != nil {
			s.reportWriteError(err)
		}
	}

	if found > 0 {
		s.matchedFiles.Add(1)
		s.matches.Add(found)
	}
}

// reportWriteError logs the first output failure of the run only.
func (s *Searcher) reportWriteError(err error) {
	if !s.writeFailed.CompareAndSwap(false, true) {
		return
	}
	attrs := pergerrors.FormatForLog(err)
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Warn("output_write_failed", args...)
}

func (s *Searcher) flush() {
	if err := s.sink.Flush(); err != nil {
		s.reportWriteError(err)
	}
}

func (s *Searcher) isSkipped(path string) bool {
	if len(s.skip) == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	for _, skip := range s.skip {
		if os.SameFile(info, skip) {
			return true
		}
	}
	return false
}

// State returns the current state.
func (s *Searcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID returns the identifier attached to this run's log records.
func (s *Searcher) RunID() string {
	return s.runID
}

// Stats returns the counters so far. Duration is only set by Run.
func (s *Searcher) Stats() Stats {
	return Stats{
		Files:        s.files.Load(),
		MatchedFiles: s.matchedFiles.Load(),
		Matches:      s.matches.Load(),
	}
}

func (s *Searcher) transition(next State) {
	s.mu.Lock()
	prev := s.state
	if next <= prev {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	s.logger.Debug("state_changed",
		slog.String("from", prev.String()),
		slog.String("to", next.String()))
	s.notify(next)
}

func (s *Searcher) notify(state State) {
	if s.opts.OnState != nil {
		s.opts.OnState(state)
	}
}

// Run is the one-call form of New followed by Run.
func Run(ctx context.Context, cfg config.SearchConfig, stdout io.Writer, opts ...Option) (Stats, error) {
	s, err := New(cfg, stdout, opts...)
	if err != nil {
		return Stats{}, err
	}
	return s.Run(ctx)
}
