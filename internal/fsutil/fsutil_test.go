// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParentsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "full_config.yaml")

	require.NoError(t, WriteBytesAtomic(path, 0o600, []byte("first\n")))
	require.NoError(t, WriteBytesAtomic(path, 0o600, []byte("second\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileAtomic_WriterErrorKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o600))

	boom := errors.New("boom")
	err := WriteFileAtomic(path, 0o600, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "model_epoch=1_loss=0.50000000.pt"), nil, 0o600))

	got, err := ConfineRelPath(root, "model_epoch=1_loss=0.50000000.pt")
	require.NoError(t, err)
	assert.Equal(t, "model_epoch=1_loss=0.50000000.pt", filepath.Base(got))

	for _, bad := range []string{"../escape.pt", "/etc/passwd", `sub\..\x.pt`, ".."} {
		_, err := ConfineRelPath(root, bad)
		assert.Error(t, err, bad)
	}
	_, err = ConfineRelPath(root, "sub/../../escape.pt")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	// dots inside a name are not traversal
	_, err = ConfineRelPath(root, "..model.pt")
	assert.NoError(t, err)
}

func TestConfineRelPath_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pt")
	require.NoError(t, os.WriteFile(target, nil, 0o600))
	if err := os.Symlink(target, filepath.Join(root, "link.pt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := ConfineRelPath(root, "link.pt")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.pt")
	require.NoError(t, os.WriteFile(f, nil, 0o600))

	assert.NoError(t, IsRegularFile(f))
	assert.Error(t, IsRegularFile(dir))
	assert.Error(t, IsRegularFile(filepath.Join(dir, "missing")))
}
