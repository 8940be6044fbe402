// Package memory keeps objects in an in-process map. It backs tests and
// dry runs where nothing should touch disk.
package memory

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(storage.Config, *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

type object struct {
	data    []byte
	modTime time.Time
}

// Storage is a concurrency-safe in-memory storage.Storage.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]object
}

var _ storage.Storage = (*Storage)(nil)

// New returns an empty store.
func New() *Storage {
	return &Storage{objects: make(map[string]object)}
}

func (s *Storage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return errors.Storage("read upload data", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = object{data: data, modTime: time.Now()}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[path]
	if !ok {
		return nil, errors.NotFound("object", path)
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var files []storage.ObjectInfo
	for p, o := range s.objects {
		if strings.HasPrefix(p, prefix) {
			files = append(files, storage.ObjectInfo{Path: p, Size: int64(len(o.data)), LastModified: o.modTime})
		}
	}
	slices.SortFunc(files, func(a, b storage.ObjectInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
