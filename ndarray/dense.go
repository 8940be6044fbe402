package ndarray

import (
	"fmt"
	"slices"

	"github.com/kbukum/tomoflow/errors"
)

// Array is the capability a dataset's backing store exposes.
type Array interface {
	Shape() []int
	Read(sel Selection) (Block[float64], error)
	Write(sel Selection, b Block[float64]) error
	Close() error
}

// Dense is a contiguous row-major N-dimensional array.
type Dense[T any] struct {
	shape   []int
	strides []int
	data    []T
}

// NewDense allocates a zeroed array.
func NewDense[T any](shape ...int) (*Dense[T], error) {
	for d, n := range shape {
		if n <= 0 {
			return nil, errors.InvalidInput("shape", fmt.Sprintf("extent %d must be positive (got %d)", d, n))
		}
	}
	return &Dense[T]{
		shape:   slices.Clone(shape),
		strides: strides(shape),
		data:    make([]T, Product(shape)),
	}, nil
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		s[d] = acc
		acc *= shape[d]
	}
	return s
}

// Shape returns a copy of the array's extents.
func (a *Dense[T]) Shape() []int { return slices.Clone(a.shape) }

// Data exposes the flat row-major storage.
func (a *Dense[T]) Data() []T { return a.data }

// Read copies the selected region into a block whose shape is sel.Shape().
func (a *Dense[T]) Read(sel Selection) (Block[T], error) {
	if err := sel.Validate(a.shape); err != nil {
		return Block[T]{}, err
	}
	out := make([]T, 0, sel.Size())
	a.walk(sel, func(off int) { out = append(out, a.data[off]) })
	return Block[T]{Shape: sel.Shape(), Data: out}, nil
}

// Write stores b into the selected region. b must hold exactly as many
// elements as the region; its shape is otherwise ignored.
func (a *Dense[T]) Write(sel Selection, b Block[T]) error {
	if err := sel.Validate(a.shape); err != nil {
		return err
	}
	if b.Size() != sel.Size() {
		return errors.InvalidInput("block",
			fmt.Sprintf("%d values cannot fill region %v of %d elements", b.Size(), sel, sel.Size()))
	}
	i := 0
	a.walk(sel, func(off int) {
		a.data[off] = b.Data[i]
		i++
	})
	return nil
}

// Fill sets every element of the selected region to v.
func (a *Dense[T]) Fill(sel Selection, v T) error {
	if err := sel.Validate(a.shape); err != nil {
		return err
	}
	a.walk(sel, func(off int) { a.data[off] = v })
	return nil
}

// Each reports every element of the selected region to fn in row-major
// order, stopping early when fn returns false.
func (a *Dense[T]) Each(sel Selection, fn func(T) bool) error {
	if err := sel.Validate(a.shape); err != nil {
		return err
	}
	stop := false
	a.walk(sel, func(off int) {
		if !stop && !fn(a.data[off]) {
			stop = true
		}
	})
	return nil
}

// Close is a no-op for in-memory arrays.
func (a *Dense[T]) Close() error { return nil }

// walk visits the flat offsets of a validated selection in row-major order.
func (a *Dense[T]) walk(sel Selection, visit func(off int)) {
	rank := len(sel)
	if rank == 0 {
		visit(0)
		return
	}
	idx := make([]int, rank)
	for {
		off := 0
		for d := range rank {
			off += (sel[d].Start + idx[d]) * a.strides[d]
		}
		visit(off)

		d := rank - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < sel[d].Count {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
