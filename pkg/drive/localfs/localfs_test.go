package localfs_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/retrieval-core/pkg/drive/localfs"
)

func TestDrive_WriteThenReadStream(t *testing.T) {
	dir := t.TempDir()
	drive := localfs.New(dir)
	ctx := context.Background()

	full, err := drive.GetFullPath(ctx, "notes/doc1.txt")
	require.NoError(t, err)
	require.NoError(t, drive.WriteFile(ctx, full, []byte("hello world")))

	stream, err := drive.GetReadStream(ctx, full)
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDrive_GetRootRelative(t *testing.T) {
	dir := t.TempDir()
	drive := localfs.New(dir)

	rel, err := drive.GetRootRelative(context.Background(), filepath.Join(dir, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("a", "b.txt"), rel)
}

func TestDrive_GetReadStream_MissingFile(t *testing.T) {
	dir := t.TempDir()
	drive := localfs.New(dir)

	_, err := drive.GetReadStream(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
