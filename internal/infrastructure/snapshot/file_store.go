package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"recallrelay/internal/errs"
	"recallrelay/internal/ports"
)

// FileStore keeps the USDA snapshot as one JSON file. Writes go to a temp file in the
// same directory and are renamed over the target, so readers see the old or the new
// document and never a partial one.
type FileStore struct {
	path string
}

var _ ports.SnapshotStore = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrapf(err, "resolve snapshot path %q", path)
	}
	return &FileStore{path: abs}, nil
}

func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create snapshot directory %q", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.Wrap(err, "create temp snapshot")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errs.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errs.Wrap(err, "sync temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(err, "close temp snapshot")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errs.Wrap(err, "chmod temp snapshot")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errs.Wrapf(err, "replace snapshot %q", s.path)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrapf(ports.ErrSnapshotNotFound, "read %s", s.path)
		}
		return nil, errs.WithStack(errs.Wrapf(err, "read snapshot %q", s.path))
	}
	return data, nil
}
