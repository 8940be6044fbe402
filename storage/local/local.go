// Package local stores objects as files under a base directory.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

// Storage implements storage.Storage on the local filesystem.
type Storage struct {
	basePath string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates the base directory if needed.
func NewStorage(basePath string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.Storage("resolve base path", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Storage("create base directory", err)
	}
	return &Storage{basePath: abs}, nil
}

// resolve maps an object path onto the filesystem. Absolute paths are
// kept when they already lie under the base directory.
func (s *Storage) resolve(path string) string {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.HasPrefix(clean, s.basePath+string(filepath.Separator)) {
		return clean
	}
	return filepath.Join(s.basePath, clean)
}

// Upload writes to a temporary file and renames it into place, so readers
// never see a partially written object.
func (s *Storage) Upload(_ context.Context, path string, reader io.Reader) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.Storage("create directory", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return errors.Storage("create file", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return errors.Storage("write file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Storage("write file", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return errors.Storage("rename file", err)
	}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("object", path)
		}
		return nil, errors.Storage("open file", err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return errors.Storage("delete file", err)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Storage("stat file", err)
	}
}

// List walks the base directory and returns files whose relative path
// starts with prefix, sorted by path.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var files []storage.ObjectInfo
	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil || !strings.HasPrefix(rel, prefix) {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, storage.ObjectInfo{Path: rel, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Storage("list files", err)
	}
	slices.SortFunc(files, func(a, b storage.ObjectInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}
