// Package sink is the single destination for formatted match lines: the
// console or an output file.
//
// Writes are serialized so a line is never interleaved with another
// worker's line. A file sink holds an exclusive advisory lock on its path
// for its whole lifetime so two runs cannot write into the same file.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

// Sink receives formatted lines.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	buf    *bufio.Writer // file sinks only
	file   *os.File
	lock   *flock.Flock
	path   string
	closed bool
}

// Console returns a sink writing straight to w.
func Console(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Open returns a console sink on console when path is empty, otherwise a
// sink that truncates and writes the file at path.
func Open(path string, console io.Writer) (*Sink, error) {
	if path == "" {
		return Console(console), nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, outputOpenError(path, err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		_ = f.Close()
		return nil, outputOpenError(path, err)
	}
	if !locked {
		_ = f.Close()
		return nil, pergerrors.New(pergerrors.ErrCodeOutputLocked,
			fmt.Sprintf("output file %s is in use by another process", path), nil).
			WithDetail("path", path).
			WithSuggestion("Wait for the other run to finish or choose another -o path")
	}

	// Truncate only once the lock is held so a busy file keeps its content
	if err := f.Truncate(0); err != nil {
		_ = lock.Unlock()
		_ = f.Close()
		return nil, outputOpenError(path, err)
	}

	buf := bufio.NewWriter(f)
	return &Sink{
		w:    buf,
		buf:  buf,
		file: f,
		lock: lock,
		path: path,
	}, nil
}

func outputOpenError(path string, cause error) error {
	return pergerrors.New(pergerrors.ErrCodeOutputOpen,
		fmt.Sprintf("cannot open output file %s", path), cause).
		WithDetail("path", path)
}

// WriteLine writes line followed by a newline as one unit.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return os.ErrClosed
	}

	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		return pergerrors.New(pergerrors.ErrCodeOutputWrite, "write to output failed", err)
	}
	return nil
}

// Flush pushes buffered lines of a file sink to the file.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.buf == nil {
		return nil
	}
	if err := s.buf.Flush(); err != nil {
		return pergerrors.New(pergerrors.ErrCodeOutputWrite, "flush output failed", err)
	}
	return nil
}

// Path returns the output file path, or "" for a console sink.
func (s *Sink) Path() string {
	return s.path
}

// File returns the output file, or nil for a console sink.
func (s *Sink) File() *os.File {
	return s.file
}

// IsTerminal reports whether lines end up on a terminal.
func (s *Sink) IsTerminal() bool {
	if s.file != nil {
		return false
	}
	f, ok := s.w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close flushes and closes a file sink and releases its lock.
// Console sinks are left open. Close is idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}

	var firstErr error
	if err := s.buf.Flush(); err != nil {
		firstErr = fmt.Errorf("flush output: %w", err)
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close output: %w", err)
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("release output lock: %w", err)
	}
	return firstErr
}
