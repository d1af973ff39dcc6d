package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 3, cfg.MaxFiles)
	assert.Equal(t, os.Stderr, cfg.Stderr)
}

func TestSetup_StderrJSONAtWarn(t *testing.T) {
	// Given: the default level writing to a buffer
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Stderr = &buf

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	// When: logging below and at the threshold
	logger.Info("search_started")
	logger.Warn("output_write_failed", slog.String("path", "out.txt"))

	// Then: only the warn record is written, as JSON
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "output_write_failed", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "out.txt", rec["path"])
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "debug", Stderr: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("file_skipped")

	assert.Contains(t, buf.String(), `"msg":"file_skipped"`)
}

func TestSetup_LogFile(t *testing.T) {
	// Given: a log file in a directory that does not exist yet
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "perg.log")

	logger, cleanup, err := Setup(Config{Level: "info", FilePath: path, Stderr: &stderr})
	require.NoError(t, err)

	// When: logging and cleaning up
	logger.Info("state_changed", slog.String("state", "scanning"))
	cleanup()

	// Then: the record lands in the file, not on stderr
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"scanning"`)
	assert.Empty(t, stderr.String())
}

func TestSetup_LogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perg.log")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)
	logger.Warn("again")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "previous\n"))
	assert.Contains(t, string(data), `"msg":"again"`)
}

func TestSetup_UnwritableLogFile(t *testing.T) {
	// A regular file where the log directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := Setup(Config{FilePath: filepath.Join(blocker, "perg.log")})

	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

// ============================================================================
// Writer Rotation Tests
// ============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer that rotates on every write past the first
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	w, err := NewRotatingWriter(logPath, 0, 3)
	require.NoError(t, err)
	defer w.Close()

	// When: writing twice
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	// Then: the older content moved to .1
	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(current))

	rotated, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(rotated))
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")
	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer w.Close()

	for i := range 5 {
		_, _ = fmt.Fprintf(w, "write %d\n", i)
	}

	assert.FileExists(t, logPath+".1")
	assert.FileExists(t, logPath+".2")
	assert.NoFileExists(t, logPath+".3")

	newest, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Equal(t, "write 3\n", string(newest))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 1, 3)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Sync())
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(logPath, 10, 3)
	require.NoError(t, err)
	defer w.Close()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d}`+"\n", i, j)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 1000)
}
