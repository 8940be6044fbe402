package stream

import "context"

// Map applies fn to each value in order on the calling goroutine.
func Map[I, O any](s *Stream[I], fn func(context.Context, I) (O, error)) *Stream[O] {
	return &Stream[O]{
		open: func(ctx context.Context) Iterator[O] {
			return &mapIter[I, O]{source: s.open(ctx), fn: fn}
		},
	}
}

// Tap calls fn for each value as a side effect and passes it on.
func Tap[T any](s *Stream[T], fn func(context.Context, T) error) *Stream[T] {
	return Map(s, func(ctx context.Context, v T) (T, error) {
		return v, fn(ctx, v)
	})
}

// Filter keeps the values for which keep returns true.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] {
	return &Stream[T]{
		open: func(ctx context.Context) Iterator[T] {
			return &filterIter[T]{source: s.open(ctx), keep: keep}
		},
	}
}

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	v, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type filterIter[T any] struct {
	source Iterator[T]
	keep   func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return v, ok, err
		}
		if it.keep(v) {
			return v, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }
