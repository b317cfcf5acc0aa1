package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gograde/domain/core"
	"gograde/internal/errors"
)

// FileStorage is the artifact store the pipeline writes through
type FileStorage interface {
	Write(ctx context.Context, path string, data []byte) error
	GetReader(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalFileStorage implements FileStorage using the local filesystem.
// Relative paths resolve against BasePath when one is set.
type LocalFileStorage struct {
	BasePath string
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(basePath string) *LocalFileStorage {
	return &LocalFileStorage{BasePath: basePath}
}

func (s *LocalFileStorage) resolve(path string) string {
	if s.BasePath == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BasePath, path)
}

// Write replaces path with data atomically: a temp file in the same
// directory is written, synced and renamed over the target
func (s *LocalFileStorage) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.resolve(path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to write %s", target)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Wrapf(err, "failed to sync %s", target)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close %s", target)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to move artifact into %s", target)
	}
	return nil
}

// GetReader returns a reader for the stored file
func (s *LocalFileStorage) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	target := s.resolve(path)
	f, err := os.Open(target)
	if os.IsNotExist(err) {
		return nil, errors.MissingFile(target)
	}
	if err != nil {
		return nil, errors.ReadError(target, err)
	}
	return f, nil
}

// Delete removes a file from storage; a missing file is not an error
func (s *LocalFileStorage) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if a file exists in storage
func (s *LocalFileStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// Hash returns the content hash of a stored file
func (s *LocalFileStorage) Hash(ctx context.Context, path string) (core.Hash, error) {
	r, err := s.GetReader(ctx, path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.ReadError(s.resolve(path), err)
	}
	return core.NewHash(data), nil
}

// CleanOutputs removes stale run outputs and returns the paths that were
// removed. Files that do not exist are skipped.
func (s *LocalFileStorage) CleanOutputs(ctx context.Context, files []string) ([]string, error) {
	var removed []string
	for _, f := range files {
		if f == "" {
			continue
		}
		ok, err := s.Exists(ctx, f)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		if err := s.Delete(ctx, f); err != nil {
			return removed, err
		}
		removed = append(removed, f)
	}
	return removed, nil
}
