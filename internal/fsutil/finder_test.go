package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# test"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.hcl", "a.hcl", "notes.txt", "parts/chords.hcl")

	flat, err := FindFilesByExtension(root, ".hcl", false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.hcl"), filepath.Join(root, "b.hcl")}, flat)

	deep, err := FindFilesByExtension(root, ".hcl", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "parts", "chords.hcl"),
	}, deep)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl", false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "", false) })
}
