package storage

import (
	"bytes"
	"context"
	"io"
	"time"
)

// Storage is an object store keyed by slash-separated paths. Backing
// files are written to it when they are closed and read back by Open.
type Storage interface {
	// Upload stores the content of r at path, replacing any existing object.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download opens the object at path. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes path. A missing object is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// List returns the objects under prefix ordered by path.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Path         string    `json:"path" yaml:"path"`
	Size         int64     `json:"size" yaml:"size"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

// ByteClient reads and writes whole objects held in memory.
type ByteClient interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}

// NewByteClient returns a ByteClient over s.
func NewByteClient(s Storage) ByteClient { return byteClient{s} }

type byteClient struct{ s Storage }

func (c byteClient) Put(ctx context.Context, path string, data []byte) error {
	return c.s.Upload(ctx, path, bytes.NewReader(data))
}

func (c byteClient) Get(ctx context.Context, path string) ([]byte, error) {
	rc, err := c.s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
