package stream

import "context"

// Iterator yields values one at a time. Next returns (zero, false, nil)
// once exhausted.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Stream is a lazily constructed sequence of values.
type Stream[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// FromSlice streams the items of a slice in order.
func FromSlice[T any](items []T) *Stream[T] {
	return &Stream[T]{
		open: func(context.Context) Iterator[T] { return &sliceIter[T]{items: items} },
	}
}

// From wraps an existing iterator. The stream can be consumed once.
func From[T any](it Iterator[T]) *Stream[T] {
	return &Stream[T]{
		open: func(context.Context) Iterator[T] { return it },
	}
}

// Iter opens the stream. The caller must Close the iterator.
func (s *Stream[T]) Iter(ctx context.Context) Iterator[T] {
	return s.open(ctx)
}

// ForEach pulls every value and passes it to fn, stopping at the first error.
func ForEach[T any](ctx context.Context, s *Stream[T], fn func(context.Context, T) error) error {
	it := s.open(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
}

// Drain pulls every value and discards it.
func Drain[T any](ctx context.Context, s *Stream[T]) error {
	return ForEach(ctx, s, func(context.Context, T) error { return nil })
}

// Collect returns every value in stream order. On error the values pulled
// so far are returned with it.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, s, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.pos >= len(it.items) {
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }
