package ndarray

import (
	"fmt"
	"strings"

	"github.com/kbukum/tomoflow/errors"
)

// Range selects Count consecutive indices starting at Start along one
// dimension. A Point range selects exactly one index and removes the
// dimension from the indexed result.
type Range struct {
	Start int  `json:"start"`
	Count int  `json:"count"`
	Point bool `json:"point,omitempty"`
}

// Span returns a range of count indices from start.
func Span(start, count int) Range { return Range{Start: start, Count: count} }

// At returns a point range selecting index i.
func At(i int) Range { return Range{Start: i, Count: 1, Point: true} }

// Full returns a range covering a whole dimension of extent n.
func Full(n int) Range { return Range{Start: 0, Count: n} }

func (r Range) String() string {
	if r.Point {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d:%d", r.Start, r.Start+r.Count)
}

// Selection is one Range per dimension.
type Selection []Range

// All selects every element of an array with the given shape.
func All(shape []int) Selection {
	sel := make(Selection, len(shape))
	for i, n := range shape {
		sel[i] = Full(n)
	}
	return sel
}

// Validate checks the selection against shape.
func (s Selection) Validate(shape []int) error {
	if len(s) != len(shape) {
		return errors.InvalidInput("selection",
			fmt.Sprintf("selection has %d dimensions, array has %d", len(s), len(shape)))
	}
	for d, r := range s {
		if r.Count <= 0 || (r.Point && r.Count != 1) {
			return errors.InvalidInput("selection", fmt.Sprintf("dimension %d: invalid count %d", d, r.Count))
		}
		if r.Start < 0 || r.Start+r.Count > shape[d] {
			return errors.OutOfRange(d, r.Start, r.Count, shape[d])
		}
	}
	return nil
}

// Shape returns the extent of the selected region, point dimensions kept
// with extent 1.
func (s Selection) Shape() []int {
	out := make([]int, len(s))
	for i, r := range s {
		out[i] = r.Count
	}
	return out
}

// IndexedShape returns the region's shape with point dimensions dropped.
func (s Selection) IndexedShape() []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		if !r.Point {
			out = append(out, r.Count)
		}
	}
	return out
}

// Size returns the number of selected elements.
func (s Selection) Size() int {
	return Product(s.Shape())
}

func (s Selection) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Product returns the number of elements in an array of the given shape.
func Product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
