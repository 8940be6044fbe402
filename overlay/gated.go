package overlay

import (
	"fmt"
	"sync"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
)

// Gated tracks which elements of its backing array have been written.
// The mask only ever goes from false to true.
type Gated struct {
	mu      sync.RWMutex
	data    ndarray.Array
	mask    *ndarray.Dense[bool]
	written int
}

// NewGated wraps data with an all-false mask of the same shape.
func NewGated(data ndarray.Array) (*Gated, error) {
	mask, err := ndarray.NewDense[bool](data.Shape()...)
	if err != nil {
		return nil, err
	}
	return &Gated{data: data, mask: mask}, nil
}

// Get returns the squeezed region under sel, or ok=false when any element
// of it is still unwritten.
func (g *Gated) Get(sel ndarray.Selection) (ndarray.Block[float64], bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ok, err := g.availableLocked(sel)
	if err != nil || !ok {
		return ndarray.Block[float64]{}, false, err
	}
	b, err := g.data.Read(sel)
	if err != nil {
		return ndarray.Block[float64]{}, false, err
	}
	return b.Squeeze(), true, nil
}

// Set reshapes value to the region's shape, writes it and marks the region
// available. The data write and the mask update happen under one lock, so
// a concurrent Get never sees the mask ahead of the data.
func (g *Gated) Set(sel ndarray.Selection, value ndarray.Block[float64]) (ndarray.Block[float64], error) {
	if err := sel.Validate(g.data.Shape()); err != nil {
		return ndarray.Block[float64]{}, err
	}
	shaped, err := value.Reshape(sel.Shape()...)
	if err != nil {
		return ndarray.Block[float64]{}, errors.InvalidInput("value",
			fmt.Sprintf("cannot reshape %v to region %v", value.Shape, sel))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fresh := 0
	err = g.mask.Each(sel, func(v bool) bool {
		if !v {
			fresh++
		}
		return true
	})
	if err != nil {
		return ndarray.Block[float64]{}, err
	}
	if err := g.data.Write(sel, shaped); err != nil {
		return ndarray.Block[float64]{}, err
	}
	if err := g.mask.Fill(sel, true); err != nil {
		return ndarray.Block[float64]{}, err
	}
	g.written += fresh

	b, err := g.data.Read(sel)
	if err != nil {
		return ndarray.Block[float64]{}, err
	}
	return b.Squeeze(), nil
}

// Available reports whether every element under sel has been written.
func (g *Gated) Available(sel ndarray.Selection) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.availableLocked(sel)
}

func (g *Gated) availableLocked(sel ndarray.Selection) (bool, error) {
	all := true
	err := g.mask.Each(sel, func(v bool) bool {
		all = v
		return v
	})
	return all && err == nil, err
}

// Coverage returns the fraction of elements written so far.
func (g *Gated) Coverage() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return float64(g.written) / float64(len(g.mask.Data()))
}

func (g *Gated) Shape() []int           { return g.data.Shape() }
func (g *Gated) Backing() ndarray.Array { return g.data }

// Close releases the backing array. The mask is kept so availability can
// still be inspected afterwards.
func (g *Gated) Close() error {
	return g.data.Close()
}
