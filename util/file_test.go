package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: value\ncount: 3\n"), 0644))

	out := map[string]interface{}{}
	require.NoError(t, ReadFileYAML(path, &out))
	assert.Equal(t, "value", out["name"])
	assert.Equal(t, 3, out["count"])

	assert.Error(t, ReadFileYAML(filepath.Join(t.TempDir(), "missing.yaml"), &out))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("\t:broken"), 0644))
	assert.Error(t, ReadFileYAML(bad, &out))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists(""))
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "missing")))

	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.True(t, FileExists(path))
}

func TestDirectoryNames(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "beta"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0644))

	names, err := DirectoryNames(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	names, err = DirectoryNames(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(path, map[string]string{"name": "value"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"name": "value"`)

	assert.Error(t, WriteJSON(path, func() {}))
}
