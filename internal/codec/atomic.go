package codec

import (
	"fmt"
	"os"
	"path/filepath"
)

// fsOps holds the file operations AtomicWrite depends on; tests swap them
// to simulate failures between the write and the final rename.
var fsOps = struct {
	mkdirAll   func(path string, perm os.FileMode) error
	createTemp func(dir, pattern string) (*os.File, error)
	rename     func(oldpath, newpath string) error
}{
	mkdirAll:   os.MkdirAll,
	createTemp: os.CreateTemp,
	rename:     os.Rename,
}

// AtomicWrite replaces path with content so that readers never observe a
// partial file: parent directories are created, content goes to a
// temporary sibling that is synced and closed, and the sibling is renamed
// over path. On failure path is unchanged and the temporary file is removed.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := fsOps.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating parent directory %s: %w", dir, err)
	}

	tmp, err := fsOps.createTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := fsOps.rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}

// AtomicWriteString is AtomicWrite for text content.
func AtomicWriteString(path, content string) error {
	return AtomicWrite(path, []byte(content))
}
