package overlay

import (
	"github.com/kbukum/tomoflow/ndarray"
)

// Overlay is the read/write contract shared by both variants.
type Overlay interface {
	// Get returns the region under sel. ok is false when the region has not
	// been fully written yet.
	Get(sel ndarray.Selection) (block ndarray.Block[float64], ok bool, err error)
	// Set writes value into the region under sel and returns the written
	// region as Get would.
	Set(sel ndarray.Selection, value ndarray.Block[float64]) (ndarray.Block[float64], error)
	Shape() []int
	// Backing exposes the wrapped array for introspection.
	Backing() ndarray.Array
	Close() error
}

// AlwaysAvailable passes reads and writes straight to the backing array.
// Point-indexed dimensions are dropped from results; nothing else is
// squeezed.
type AlwaysAvailable struct {
	data ndarray.Array
}

// NewAlwaysAvailable wraps data without a mask.
func NewAlwaysAvailable(data ndarray.Array) *AlwaysAvailable {
	return &AlwaysAvailable{data: data}
}

func (o *AlwaysAvailable) Get(sel ndarray.Selection) (ndarray.Block[float64], bool, error) {
	b, err := o.data.Read(sel)
	if err != nil {
		return ndarray.Block[float64]{}, false, err
	}
	return ndarray.Block[float64]{Shape: sel.IndexedShape(), Data: b.Data}, true, nil
}

func (o *AlwaysAvailable) Set(sel ndarray.Selection, value ndarray.Block[float64]) (ndarray.Block[float64], error) {
	if err := o.data.Write(sel, value); err != nil {
		return ndarray.Block[float64]{}, err
	}
	b, _, err := o.Get(sel)
	return b, err
}

func (o *AlwaysAvailable) Shape() []int           { return o.data.Shape() }
func (o *AlwaysAvailable) Backing() ndarray.Array { return o.data }
func (o *AlwaysAvailable) Close() error           { return o.data.Close() }
