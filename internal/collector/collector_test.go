package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func collect(t *testing.T, root string, excludes []string) *Result {
	t.Helper()
	c, err := New(root, excludes)
	require.NoError(t, err)
	result, err := c.Collect()
	require.NoError(t, err)
	return result
}

func pathsOf(result *Result) []string {
	var paths []string
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestCollectBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hello')\n")
	writeFile(t, root, "requirements.txt", "torch==2.1.0\n")
	writeFile(t, root, "weights.bin", "abc\x00def")

	result := collect(t, root, nil)

	require.Len(t, result.Files, 3)
	assert.Empty(t, result.Warnings)

	byPath := make(map[string]File)
	for _, f := range result.Files {
		byPath[f.Path] = f
	}

	assert.Equal(t, models.EvidenceText, byPath["main.py"].Kind)
	assert.Equal(t, models.EvidenceManifest, byPath["requirements.txt"].Kind)
	assert.Equal(t, models.EvidenceRaw, byPath["weights.bin"].Kind)

	for _, f := range result.Files {
		assert.Len(t, f.ContentDigest, 64, "sha256 hex digest")
		assert.Equal(t, int64(len(f.Content)), f.Size)
	}
}

func TestCollectSkipsWellKnownDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, ".git/config", "[core]\n")
	writeFile(t, root, "node_modules/lodash/index.js", "module.exports = {}\n")
	writeFile(t, root, "__pycache__/app.pyc", "\x00\x01")

	result := collect(t, root, nil)

	assert.Equal(t, []string{"app.py"}, pathsOf(result))
}

func TestCollectExclusionPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "x = 1\n")
	writeFile(t, root, "vendor/dep.py", "y = 2\n")
	writeFile(t, root, "notes.log", "log line\n")

	tests := []struct {
		name     string
		excludes []string
		expected []string
	}{
		{
			name:     "segment match excludes directory at any depth",
			excludes: []string{"vendor"},
			expected: []string{"main.py", "notes.log"},
		},
		{
			name:     "glob on file name",
			excludes: []string{"*.log"},
			expected: []string{"main.py", "vendor/dep.py"},
		},
		{
			name:     "no excludes",
			excludes: nil,
			expected: []string{"main.py", "notes.log", "vendor/dep.py"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := collect(t, root, tt.excludes)
			assert.ElementsMatch(t, tt.expected, pathsOf(result))
		})
	}
}

func TestCollectMalformedPattern(t *testing.T) {
	_, err := New(t.TempDir(), []string{"[unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed exclusion pattern")
}

func TestCollectRootNotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	c, err := New(file, nil)
	require.NoError(t, err)
	_, err = c.Collect()
	assert.Error(t, err)
}

func TestCollectSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("hidden"), 0o644))

	root := t.TempDir()
	writeFile(t, root, "inside.txt", "visible\n")
	require.NoError(t, os.Symlink(secret, filepath.Join(root, "link.txt")))

	result := collect(t, root, nil)

	assert.Equal(t, []string{"inside.txt"}, pathsOf(result))
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "link.txt", result.Warnings[0].Path)
	assert.Contains(t, result.Warnings[0].Reason, "outside repository root")
}

func TestCollectRootReachedThroughSymlink(t *testing.T) {
	real := t.TempDir()
	writeFile(t, real, "app.py", "x = 1\n")
	writeFile(t, real, "target.txt", "content\n")
	require.NoError(t, os.Symlink(filepath.Join(real, "target.txt"), filepath.Join(real, "alias.txt")))

	// Scan through a symlinked root; the in-root symlink must not be
	// mistaken for an escape.
	linked := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, os.Symlink(real, linked))

	result := collect(t, linked, nil)

	assert.Empty(t, result.Warnings)
	assert.Contains(t, pathsOf(result), "alias.txt")
}

func TestCollectOversizedFileBecomesWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "ok\n")
	writeFile(t, root, "big.txt", "0123456789")

	c, err := New(root, nil)
	require.NoError(t, err)
	c.maxFileSize = 5

	result, err := c.Collect()
	require.NoError(t, err)

	assert.Equal(t, []string{"small.txt"}, pathsOf(result))
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Reason, "size limit")
}

func TestCollectDeterministicMembership(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "a\n")
	writeFile(t, root, "b/c.py", "c\n")
	writeFile(t, root, "README.md", "docs\n")

	first := collect(t, root, nil)
	second := collect(t, root, nil)

	assert.Equal(t, first.Items(), second.Items())
}
