package ndarray

import (
	"fmt"
	"slices"

	"github.com/kbukum/tomoflow/errors"
)

// Block is a dense row-major region read from or written to an array.
type Block[T any] struct {
	Shape []int
	Data  []T
}

// NewBlock allocates a zeroed block.
func NewBlock[T any](shape ...int) Block[T] {
	return Block[T]{Shape: slices.Clone(shape), Data: make([]T, Product(shape))}
}

// BlockOf wraps data as a block of the given shape.
func BlockOf[T any](data []T, shape ...int) (Block[T], error) {
	if Product(shape) != len(data) {
		return Block[T]{}, errors.InvalidInput("block",
			fmt.Sprintf("%d values cannot fill shape %v", len(data), shape))
	}
	return Block[T]{Shape: slices.Clone(shape), Data: data}, nil
}

// Size returns the number of elements.
func (b Block[T]) Size() int { return len(b.Data) }

// Rank returns the number of dimensions.
func (b Block[T]) Rank() int { return len(b.Shape) }

// Reshape returns a view of the same data with a new shape.
func (b Block[T]) Reshape(shape ...int) (Block[T], error) {
	return BlockOf(b.Data, shape...)
}

// Squeeze drops every dimension of extent 1.
func (b Block[T]) Squeeze() Block[T] {
	shape := make([]int, 0, len(b.Shape))
	for _, n := range b.Shape {
		if n != 1 {
			shape = append(shape, n)
		}
	}
	return Block[T]{Shape: shape, Data: b.Data}
}

// At returns the element at a full index.
func (b Block[T]) At(idx ...int) T {
	off := 0
	for d, i := range idx {
		off = off*b.Shape[d] + i
	}
	return b.Data[off]
}

// Clone returns a deep copy.
func (b Block[T]) Clone() Block[T] {
	return Block[T]{Shape: slices.Clone(b.Shape), Data: slices.Clone(b.Data)}
}
