package fsxlocal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/expomail/pkg/fsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileSystem_ReadAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.html"), []byte("<p>hi</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	fs, err := NewLocalFileSystem(dir)
	require.NoError(t, err)
	ctx := context.Background()

	data, err := fs.ReadFile(ctx, "welcome.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))

	infos, err := fs.List(ctx, ".")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.False(t, info.IsDir)
	}
}

func TestLocalFileSystem_NotFound(t *testing.T) {
	fs, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	_, err = fs.ReadFile(context.Background(), "missing.html")
	assert.True(t, errors.Is(err, fsx.ErrNotFound))

	_, err = fs.List(context.Background(), "nested")
	assert.True(t, errors.Is(err, fsx.ErrNotFound))
}

func TestLocalFileSystem_RejectsEscape(t *testing.T) {
	fs, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	_, err = fs.ReadFile(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.False(t, errors.Is(err, fsx.ErrNotFound))
}
