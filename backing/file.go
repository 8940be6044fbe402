package backing

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/resilience"
	"github.com/kbukum/tomoflow/storage"
)

// File is one container: a set of groups persisted under one filename.
type File struct {
	filename string
	store    storage.ByteClient
	log      *logger.Logger
	retry    resilience.RetryConfig

	// io is held shared by writes and exclusively while the file is encoded.
	// It is always taken before mu.
	io sync.RWMutex

	mu       sync.Mutex
	arrays   []*Array
	released int
	opened   bool
	closed   bool
}

func (f *File) Filename() string { return f.filename }

// Opened reports whether any array of the file has been written.
func (f *File) Opened() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Closed reports whether the file has been closed.
func (f *File) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Groups lists the file's group names in creation order.
func (f *File) Groups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.arrays))
	for i, a := range f.arrays {
		names[i] = a.group
	}
	return names
}

func (f *File) add(group string, shape []int, meta Meta) (*Array, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.Closed("backing file " + f.filename)
	}
	if slices.ContainsFunc(f.arrays, func(a *Array) bool { return a.group == group }) {
		return nil, errors.AlreadyExists("group", f.filename+":"+group)
	}
	data, err := ndarray.NewDense[float64](shape...)
	if err != nil {
		return nil, err
	}
	a := &Array{file: f, group: group, meta: meta, data: data}
	f.arrays = append(f.arrays, a)
	return a, nil
}

// markOpen opens the file on its first write.
func (f *File) markOpen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.Closed("backing file " + f.filename)
	}
	if !f.opened {
		f.opened = true
		f.log.Debug("opening backing file", logger.Fields(logger.FieldFile, f.filename))
	}
	return nil
}

// release is called when one of the file's arrays is closed. The file is
// closed once all of them are.
func (f *File) release(ctx context.Context, a *Array) error {
	f.mu.Lock()
	if a.released || f.closed {
		f.mu.Unlock()
		return nil
	}
	a.released = true
	f.released++
	last := f.released == len(f.arrays)
	f.mu.Unlock()

	if last {
		return f.Close(ctx)
	}
	return nil
}

// Close encodes the file and stores it. Closing a file that was never
// written, or closing twice, does nothing.
func (f *File) Close(ctx context.Context) error {
	f.io.Lock()
	defer f.io.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.opened {
		return nil
	}

	var buf bytes.Buffer
	if err := encode(&buf, f.arrays); err != nil {
		return errors.Storage("encode "+f.filename, err)
	}
	retry := f.retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		f.log.Warn("retrying backing file upload", logger.MergeWithError(logger.Fields(
			logger.FieldFile, f.filename,
			"attempt", attempt,
			"backoff", backoff.String(),
		), err))
	}
	err := resilience.RetryFunc(ctx, retry, func() error {
		return f.store.Put(ctx, f.filename, buf.Bytes())
	})
	if err != nil {
		return errors.Wrap(err).WithDetail(logger.FieldFile, f.filename)
	}
	f.log.Debug("closed backing file", logger.Fields(
		logger.FieldFile, f.filename,
		"groups", len(f.arrays),
		"bytes", buf.Len(),
	))
	return nil
}

// Array is one group of a File. It satisfies ndarray.Array.
type Array struct {
	file     *File
	group    string
	meta     Meta
	data     *ndarray.Dense[float64]
	released bool
}

var _ ndarray.Array = (*Array)(nil)

func (a *Array) File() *File   { return a.file }
func (a *Array) Group() string { return a.group }
func (a *Array) Meta() Meta    { return a.meta }
func (a *Array) Shape() []int  { return a.data.Shape() }

func (a *Array) Read(sel ndarray.Selection) (ndarray.Block[float64], error) {
	return a.data.Read(sel)
}

// Write stores b and opens the file if this is its first write. Writes
// fail with CLOSED once the file has been closed.
func (a *Array) Write(sel ndarray.Selection, b ndarray.Block[float64]) error {
	a.file.io.RLock()
	defer a.file.io.RUnlock()
	if err := a.file.markOpen(); err != nil {
		return err
	}
	return a.data.Write(sel, b)
}

// Close releases the array. It is safe to call more than once.
func (a *Array) Close() error {
	return a.file.release(context.Background(), a)
}
