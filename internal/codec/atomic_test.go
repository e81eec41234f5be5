package codec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAtomicWriteCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "out.yml")

	require.NoError(t, AtomicWriteString(path, "matches: []\n"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "matches: []\n", string(got))
	assert.Equal(t, []string{"out.yml"}, dirEntries(t, filepath.Dir(path)))
}

func TestAtomicWriteReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yml")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous content\n"), 0o644))

	require.NoError(t, AtomicWriteString(path, "short\n"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(got))
	assert.Equal(t, []string{"out.yml"}, dirEntries(t, dir))
}

func failRename(t *testing.T) {
	t.Helper()
	orig := fsOps.rename
	fsOps.rename = func(string, string) error { return errors.New("interrupted") }
	t.Cleanup(func() { fsOps.rename = orig })
}

func TestAtomicWriteInterruptedKeepsPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yml")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))
	failRename(t)

	err := AtomicWriteString(path, "new\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
	assert.Equal(t, []string{"out.yml"}, dirEntries(t, dir), "temp file must be cleaned up")
}

func TestAtomicWriteInterruptedLeavesTargetAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yml")
	failRename(t)

	require.Error(t, AtomicWriteString(path, "new\n"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestAtomicWriteParentFailure(t *testing.T) {
	orig := fsOps.mkdirAll
	fsOps.mkdirAll = func(string, os.FileMode) error { return errors.New("read-only") }
	t.Cleanup(func() { fsOps.mkdirAll = orig })

	err := AtomicWriteString(filepath.Join(t.TempDir(), "x", "out.yml"), "data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating parent directory")
}
