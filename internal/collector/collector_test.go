package collector

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative path -> content) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// rel strips root from every path for stable assertions.
func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestCollect_DirectoryIsExpandedRecursively(t *testing.T) {
	// Given: a nested fixture tree
	root := writeTree(t, map[string]string{
		"a.txt":           "cat",
		"b.txt":           "no match",
		"sub/c.go":        "package c",
		"sub/deep/d.md":   "# d",
		"sub/deep/e.json": "{}",
	})

	// When: collecting the directory
	files, err := Collect(context.Background(), []string{root}, nil)

	// Then: every regular file is listed in lexical walk order
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub/c.go", "sub/deep/d.md", "sub/deep/e.json"}, rel(t, root, files))
}

func TestCollect_ExcludeMatchesFilenameSubstringAtAnyDepth(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.go":               "x",
		"skip_test.go":          "x",
		"sub/also_test.go":      "x",
		"sub/deep/more_test.go": "x",
		"sub/deep/fine.go":      "x",
	})

	files, err := Collect(context.Background(), []string{root}, []string{"_test"})

	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go", "sub/deep/fine.go"}, rel(t, root, files))
}

func TestCollect_ExcludeIgnoresDirectoryComponents(t *testing.T) {
	// Given: an exclude pattern that only appears in a directory name
	root := writeTree(t, map[string]string{
		"vendor/lib.go": "x",
	})

	// When: collecting with that pattern
	files, err := Collect(context.Background(), []string{root}, []string{"vendor"})

	// Then: the file is kept since only the filename is tested
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/lib.go"}, rel(t, root, files))
}

func TestCollect_MultipleExcludePatternsAreORed(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
		"b.log": "x",
		"c.go":  "x",
	})

	files, err := Collect(context.Background(), []string{root}, []string{".txt", ".log"})

	require.NoError(t, err)
	assert.Equal(t, []string{"c.go"}, rel(t, root, files))
}

func TestCollect_ExcludeIsNotAGlob(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
	})

	files, err := Collect(context.Background(), []string{root}, []string{"*.txt"})

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCollect_RegularFileIncludePath(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
		"b.txt": "y",
	})
	path := filepath.Join(root, "a.txt")

	files, err := Collect(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	files, err = Collect(context.Background(), []string{path}, []string{"a."})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollect_MissingPathIsSilentlySkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
	})

	files, err := Collect(context.Background(), []string{
		filepath.Join(root, "does-not-exist"),
		filepath.Join(root, "a.txt"),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.txt")}, files)
}

func TestCollect_MissingPathIsLoggedAsNotFound(t *testing.T) {
	// Given: a debug logger and an include path that does not exist
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	missing := filepath.Join(t.TempDir(), "gone.txt")

	// When: collecting
	files, err := Collect(context.Background(), []string{missing}, nil, WithLogger(logger))

	// Then: nothing is collected and the skip carries the not-found code
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Contains(t, logs.String(), `"msg":"include_path_skipped"`)
	assert.Contains(t, logs.String(), `"error_code":"ERR_201_FILE_NOT_FOUND"`)
	assert.Contains(t, logs.String(), `"detail_path":"`+missing+`"`)
}

func TestCollect_KeepsIncludeOrderAndDeduplicates(t *testing.T) {
	// Given: overlapping include paths
	root := writeTree(t, map[string]string{
		"one/a.txt": "x",
		"two/b.txt": "x",
	})

	// When: the same files are reachable through several include paths
	files, err := Collect(context.Background(), []string{
		filepath.Join(root, "two"),
		filepath.Join(root, "one"),
		filepath.Join(root, "two", "b.txt"),
		root,
	}, nil, WithConcurrency(3))

	// Then: each file appears once, in first-seen order
	require.NoError(t, err)
	assert.Equal(t, []string{"two/b.txt", "one/a.txt"}, rel(t, root, files))
}

func TestCollect_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := writeTree(t, map[string]string{
		"data/real.txt":   "x",
		"outside/far.txt": "x",
	})
	data := filepath.Join(root, "data")
	require.NoError(t, os.Symlink(filepath.Join(data, "real.txt"), filepath.Join(data, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(data, "dangling.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "outside"), filepath.Join(data, "dirlink")))

	t.Run("file links are kept, dangling and dir links are not followed", func(t *testing.T) {
		files, err := Collect(context.Background(), []string{data}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"link.txt", "real.txt"}, rel(t, data, files))
	})

	t.Run("symlinked include directory is walked", func(t *testing.T) {
		link := filepath.Join(root, "data-link")
		require.NoError(t, os.Symlink(filepath.Join(root, "outside"), link))

		files, err := Collect(context.Background(), []string{link}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(link, "far.txt")}, files)
	})
}

func TestCollect_CancelledContext(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, []string{root}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollect_SortedSnapshotIsStable(t *testing.T) {
	root := writeTree(t, map[string]string{
		"z/1.txt": "x",
		"a/2.txt": "x",
		"m/3.txt": "x",
	})

	first, err := Collect(context.Background(), []string{root}, nil, WithConcurrency(1))
	require.NoError(t, err)
	second, err := Collect(context.Background(), []string{root}, nil, WithConcurrency(8))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, sort.StringsAreSorted(first))
}

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"dir/a.txt", []string{"txt"}, true},
		{"txt/a.go", []string{"txt"}, false},
		{"dir/a.go", nil, false},
		{"dir/report_final.csv", []string{"xyz", "final"}, true},
		{"dir/A.TXT", []string{"txt"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcluded(tt.path, tt.patterns))
		})
	}
}

func TestIsCandidate(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "x",
	})

	assert.True(t, IsCandidate(filepath.Join(root, "a.txt"), nil))
	assert.False(t, IsCandidate(filepath.Join(root, "a.txt"), []string{"a"}))
	assert.False(t, IsCandidate(root, nil))
	assert.False(t, IsCandidate(filepath.Join(root, "missing"), nil))
}
