package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fs, p, []byte(p), 0o644))
	}
}

func TestWalkFiles_FilesBeforeSubdirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/in/z.json",
		"/in/a/inner.json",
		"/in/a/b/deep.txt",
		"/in/a/0.txt",
		"/in/m.bin",
		"/in/c/only.txt",
	)

	var visited []string
	err := WalkFiles(fs, "/in", func(path string, _ os.FileInfo) error {
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/in/m.bin",
		"/in/z.json",
		"/in/a/0.txt",
		"/in/a/inner.json",
		"/in/a/b/deep.txt",
		"/in/c/only.txt",
	}, visited)
}

func TestWalkFiles_MissingRoot(t *testing.T) {
	called := false
	err := WalkFiles(afero.NewMemMapFs(), "/nope", func(string, os.FileInfo) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestWalkFiles_SkipAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/in/a.txt", "/in/b.txt", "/in/sub/c.txt")

	var visited []string
	err := WalkFiles(fs, "/in", func(path string, _ os.FileInfo) error {
		visited = append(visited, path)
		return filepath.SkipAll
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/a.txt"}, visited)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".DS_Store"))
	assert.False(t, IsHidden("profile.json"))
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/out/result.json"

	require.NoError(t, WriteFileAtomic(fs, path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(fs, path, []byte("second"), 0o644))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := WriteFileAtomic(fs, "/out/result.json", []byte("x"), 0o644)
	assert.Error(t, err)
}
