// internal/common/fsutil/fsutil.go
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// WalkFiles calls fn for every regular file under root. Within a directory
// the files are visited in name order first, then each subdirectory in name
// order, recursively. A missing root or an unreadable subdirectory is
// treated as empty. Returning filepath.SkipAll from fn stops the walk
// without error.
func WalkFiles(fs afero.Fs, root string, fn func(path string, info os.FileInfo) error) error {
	err := walkDir(fs, root, fn)
	if err == filepath.SkipAll {
		return nil
	}
	return err
}

func walkDir(fs afero.Fs, dir string, fn func(string, os.FileInfo) error) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, p)
			continue
		}
		if !e.Mode().IsRegular() {
			continue
		}
		if err := fn(p, e); err != nil {
			return err
		}
	}
	for _, d := range subdirs {
		if err := walkDir(fs, d, fn); err != nil {
			return err
		}
	}
	return nil
}

// IsHidden reports whether a base name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// WriteFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place.
func WriteFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
