package storage

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"gograde/domain/core"
	"gograde/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParentsAndReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir())

	require.NoError(t, s.Write(ctx, "processed/data_clean.csv", []byte("a,b\n1,2\n")))
	require.NoError(t, s.Write(ctx, "processed/data_clean.csv", []byte("a,b\n3,4\n")))

	r, err := s.GetReader(ctx, "processed/data_clean.csv")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n3,4\n", string(data))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Join(s.BasePath, "processed"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocalFileStorage(t.TempDir())
	assert.ErrorIs(t, s.Write(ctx, "x.txt", []byte("x")), context.Canceled)
}

func TestGetReaderMissingFile(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir())
	_, err := s.GetReader(context.Background(), "nope.csv")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingFile))
}

func TestExistsDeleteAndHash(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir())

	ok, err := s.Exists(ctx, "report.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "report.txt", []byte("hello")))
	ok, err = s.Exists(ctx, "report.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	h, err := s.Hash(ctx, "report.txt")
	require.NoError(t, err)
	assert.Equal(t, core.NewHash([]byte("hello")), h)

	require.NoError(t, s.Delete(ctx, "report.txt"))
	require.NoError(t, s.Delete(ctx, "report.txt"))
	ok, err = s.Exists(ctx, "report.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCleanOutputs(t *testing.T) {
	ctx := context.Background()
	s := NewLocalFileStorage(t.TempDir())

	require.NoError(t, s.Write(ctx, "processed/data_clean.csv", []byte("x")))
	require.NoError(t, s.Write(ctx, "outputs/figures/1_histogram_G3.png", []byte("png")))
	require.NoError(t, s.Write(ctx, "outputs/figures/notes.md", []byte("keep")))

	removed, err := s.CleanOutputs(ctx, []string{
		"processed/data_clean.csv",
		"outputs/posthoc_tukey.txt",
		"outputs/figures/1_histogram_G3.png",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"processed/data_clean.csv", "outputs/figures/1_histogram_G3.png"}, removed)

	for _, p := range removed {
		ok, err := s.Exists(ctx, p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}
	ok, err := s.Exists(ctx, "outputs/figures/notes.md")
	require.NoError(t, err)
	assert.True(t, ok)
}
