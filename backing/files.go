package backing

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/resilience"
	"github.com/kbukum/tomoflow/storage"
)

// Files is the set of backing files created during one run.
type Files struct {
	store storage.ByteClient
	log   *logger.Logger
	retry resilience.RetryConfig

	mu    sync.Mutex
	files map[string]*File
	order []string
}

// NewFiles creates an empty set persisting through s.
func NewFiles(s storage.Storage, log *logger.Logger) *Files {
	return &Files{
		store: storage.NewByteClient(s),
		log:   log.WithComponent("backing"),
		retry: resilience.DefaultRetryConfig(),
		files: make(map[string]*File),
	}
}

// WithRetry sets how failed uploads of closed files are retried.
func (fs *Files) WithRetry(cfg resilience.RetryConfig) *Files {
	cfg.ApplyDefaults()
	fs.retry = cfg
	return fs
}

// Create adds a group of the given shape to filename, creating the file
// entry on first use. Nothing is written to storage until the file is
// opened by a write and then closed.
func (fs *Files) Create(filename, group string, shape []int, meta Meta) (*Array, error) {
	fs.mu.Lock()
	f, ok := fs.files[filename]
	if !ok {
		f = &File{filename: filename, store: fs.store, log: fs.log, retry: fs.retry}
		fs.files[filename] = f
		fs.order = append(fs.order, filename)
	}
	fs.mu.Unlock()
	return f.add(group, shape, meta)
}

// File returns the named file.
func (fs *Files) File(filename string) (*File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[filename]
	if !ok {
		return nil, errors.NotFound("backing file", filename)
	}
	return f, nil
}

// Filenames lists the files in creation order.
func (fs *Files) Filenames() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return slices.Clone(fs.order)
}

// Close closes every file once, in creation order, and joins the errors.
// Files already closed are skipped.
func (fs *Files) Close(ctx context.Context) error {
	fs.mu.Lock()
	files := make([]*File, 0, len(fs.order))
	for _, name := range fs.order {
		files = append(files, fs.files[name])
	}
	fs.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := f.Close(ctx); err != nil {
			fs.log.Error("failed to close backing file", logger.ErrorFields("close", err))
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Open reads and decodes a stored container.
func Open(ctx context.Context, s storage.Storage, filename string) ([]Group, error) {
	data, err := storage.NewByteClient(s).Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
