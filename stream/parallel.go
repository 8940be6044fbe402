package stream

import (
	"context"
	"sync"
)

type result[T any] struct {
	val T
	err error
}

type chanIter[T any] struct {
	ch    <-chan result[T]
	close func() error
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error { return it.close() }

// Parallel applies fn with up to workers goroutines. Results arrive in
// completion order. The first error cancels the remaining work. Closing the
// iterator cancels the workers and waits for them to return, so no call to
// fn is still running once Close has returned.
func Parallel[I, O any](s *Stream[I], workers int, fn func(context.Context, I) (O, error)) *Stream[O] {
	if workers < 1 {
		workers = 1
	}
	return &Stream[O]{
		open: func(ctx context.Context) Iterator[O] {
			source := s.open(ctx)
			wctx, cancel := context.WithCancel(ctx)
			in := make(chan I, workers)
			out := make(chan result[O], workers)

			send := func(r result[O]) bool {
				select {
				case out <- r:
					return true
				case <-wctx.Done():
					return false
				}
			}

			fed := make(chan struct{})
			go func() {
				defer close(fed)
				defer close(in)
				for {
					v, ok, err := source.Next(wctx)
					if err != nil {
						send(result[O]{err: err})
						return
					}
					if !ok {
						return
					}
					select {
					case in <- v:
					case <-wctx.Done():
						return
					}
				}
			}()

			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for v := range in {
						if wctx.Err() != nil {
							return
						}
						o, err := fn(wctx, v)
						if err != nil {
							send(result[O]{err: err})
							cancel()
							return
						}
						if !send(result[O]{val: o}) {
							return
						}
					}
				}()
			}
			done := make(chan struct{})
			go func() {
				wg.Wait()
				<-fed
				close(out)
				close(done)
			}()

			return &chanIter[O]{
				ch: out,
				close: func() error {
					cancel()
					<-done
					return source.Close()
				},
			}
		},
	}
}
