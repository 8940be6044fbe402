package dataset

import (
	"fmt"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
)

// Frame is one step of chunked iteration: a coordinate range for each
// slice direction of a pattern, in the pattern's slice order. Core
// directions are always taken whole.
type Frame struct {
	Index int
	Slice []ndarray.Range
}

// Selection maps the frame onto a dataset of the given shape through
// pattern p, which must have as many slice directions as the frame.
func (f Frame) Selection(p Pattern, shape []int) (ndarray.Selection, error) {
	if len(f.Slice) != len(p.SliceDir) {
		return nil, errors.InvalidInput("frame",
			fmt.Sprintf("frame has %d slice coordinates, pattern has %d slice directions", len(f.Slice), len(p.SliceDir)))
	}
	if p.Rank() != len(shape) {
		return nil, errors.InvalidInput("frame",
			fmt.Sprintf("pattern covers %d dimensions, array has %d", p.Rank(), len(shape)))
	}
	sel := make(ndarray.Selection, len(shape))
	for _, d := range p.CoreDir {
		sel[d] = ndarray.Full(shape[d])
	}
	for i, d := range p.SliceDir {
		sel[d] = f.Slice[i]
	}
	return sel, sel.Validate(shape)
}

// Frames lists the frames of the named pattern in processing order. The
// first slice direction is chunked into runs of at most maxFrames and
// varies fastest; every other slice direction is stepped one index at a
// time. A pattern without slice directions yields a single frame.
func (d *Dataset) Frames(patternName string, maxFrames int) ([]Frame, error) {
	p, err := d.Pattern(patternName)
	if err != nil {
		return nil, err
	}
	if maxFrames < 1 {
		maxFrames = 1
	}
	if len(p.SliceDir) == 0 {
		return []Frame{{Index: 0}}, nil
	}

	// chunks[i] lists the ranges iterated along slice direction i.
	chunks := make([][]ndarray.Range, len(p.SliceDir))
	for i, dim := range p.SliceDir {
		n := d.shape[dim]
		if i == 0 {
			for start := 0; start < n; start += maxFrames {
				chunks[i] = append(chunks[i], ndarray.Span(start, min(maxFrames, n-start)))
			}
			continue
		}
		for j := range n {
			chunks[i] = append(chunks[i], ndarray.At(j))
		}
	}

	total := 1
	for _, c := range chunks {
		total *= len(c)
	}
	frames := make([]Frame, 0, total)
	pos := make([]int, len(chunks))
	for idx := range total {
		slice := make([]ndarray.Range, len(chunks))
		for i, c := range chunks {
			slice[i] = c[pos[i]]
		}
		frames = append(frames, Frame{Index: idx, Slice: slice})
		for i := range pos {
			pos[i]++
			if pos[i] < len(chunks[i]) {
				break
			}
			pos[i] = 0
		}
	}
	return frames, nil
}
