package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/clishot/pkg/errors"
)

// FileStore writes PNG files into a directory.
// The record ID is the file name.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewFileStore creates dir if needed and returns a store writing into it.
// An empty dir uses the working directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output dir %s", dir)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Save writes data to <dir>/<name>_<timestamp>.png and returns the file name.
// A render saved under the same name within the same second replaces the
// earlier file.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := errors.ValidateOutputName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := StampedName(name, s.now()) + ".png"
	path := filepath.Join(s.dir, id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return id, nil
}

// Get reads a file previously written by Save.
func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := errors.ValidateOutputName(id); err != nil {
		return nil, err
	}
	path := s.Path(id)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "render %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return &Record{
		ID:        id,
		Name:      recordName(id),
		CreatedAt: info.ModTime(),
		Data:      data,
	}, nil
}

// Close does nothing.
func (s *FileStore) Close() error { return nil }

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the full path of a saved file.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, id)
}

// recordName strips the timestamp suffix and extension from a file name.
func recordName(id string) string {
	base := strings.TrimSuffix(id, ".png")
	if n := len(base) - len(TimestampFormat) - 1; n > 0 && base[n] == '_' {
		return base[:n]
	}
	return base
}

var _ Store = (*FileStore)(nil)
