package overlay

import (
	"slices"
	"sync"
	"testing"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
)

func newGated(t *testing.T, shape ...int) *Gated {
	t.Helper()
	data, err := ndarray.NewDense[float64](shape...)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	g, err := NewGated(data)
	if err != nil {
		t.Fatalf("NewGated: %v", err)
	}
	return g
}

func values(n int, base float64) ndarray.Block[float64] {
	b := ndarray.NewBlock[float64](n)
	for i := range b.Data {
		b.Data[i] = base + float64(i)
	}
	return b
}

func TestGatedGetBeforeSetIsUnavailable(t *testing.T) {
	g := newGated(t, 4, 3, 2)
	b, ok, err := g.Get(ndarray.Selection{ndarray.At(0), ndarray.Full(3), ndarray.Full(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected not-available before any write")
	}
	if b.Data != nil {
		t.Errorf("expected empty block, got %v", b)
	}
}

func TestGatedSetThenGet(t *testing.T) {
	g := newGated(t, 4, 3, 2)
	sel := ndarray.Selection{ndarray.At(1), ndarray.Full(3), ndarray.Full(2)}

	written, err := g.Set(sel, values(6, 10))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !slices.Equal(written.Shape, []int{3, 2}) {
		t.Errorf("Set should return squeezed region, got shape %v", written.Shape)
	}

	got, ok, err := g.Get(sel)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if !slices.Equal(got.Shape, written.Shape) || !slices.Equal(got.Data, written.Data) {
		t.Errorf("Get() = %v, want %v", got, written)
	}
	if avail, _ := g.Available(sel); !avail {
		t.Error("mask should be true under the written region")
	}
}

func TestGatedPartialRegionUnavailable(t *testing.T) {
	g := newGated(t, 4, 3)
	if _, err := g.Set(ndarray.Selection{ndarray.At(0), ndarray.Full(3)}, values(3, 0)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, ok, err := g.Get(ndarray.Selection{ndarray.Span(0, 2), ndarray.Full(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("region spanning an unwritten row must be unavailable")
	}
}

func TestGatedMaskIsMonotonic(t *testing.T) {
	g := newGated(t, 2, 2)
	first := ndarray.Selection{ndarray.At(0), ndarray.Full(2)}
	second := ndarray.Selection{ndarray.At(1), ndarray.Full(2)}

	_, _ = g.Set(first, values(2, 0))
	_, _ = g.Set(second, values(2, 5))
	_, _ = g.Set(first, values(2, 9))
	_, _, _ = g.Get(ndarray.All([]int{2, 2}))

	for _, sel := range []ndarray.Selection{first, second} {
		if ok, _ := g.Available(sel); !ok {
			t.Errorf("region %v lost availability", sel)
		}
	}
	if g.Coverage() != 1 {
		t.Errorf("expected full coverage, got %v", g.Coverage())
	}
}

func TestGatedCoverageCountsEachElementOnce(t *testing.T) {
	g := newGated(t, 4, 5)
	sel := ndarray.Selection{ndarray.At(2), ndarray.Full(5)}
	_, _ = g.Set(sel, values(5, 0))
	_, _ = g.Set(sel, values(5, 1))
	if got := g.Coverage(); got != 0.25 {
		t.Errorf("Coverage() = %v, want 0.25", got)
	}
}

// readOnly rejects every write.
type readOnly struct{ *ndarray.Dense[float64] }

func (readOnly) Write(ndarray.Selection, ndarray.Block[float64]) error {
	return errors.Closed("array")
}

func TestGatedFailedWriteLeavesMask(t *testing.T) {
	data, err := ndarray.NewDense[float64](2, 3)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	g, err := NewGated(readOnly{data})
	if err != nil {
		t.Fatalf("NewGated: %v", err)
	}
	sel := ndarray.Selection{ndarray.At(1), ndarray.Full(3)}
	if _, err := g.Set(sel, values(3, 0)); !errors.HasCode(err, errors.ErrCodeClosed) {
		t.Fatalf("Set error = %v, want CLOSED", err)
	}
	if ok, _ := g.Available(sel); ok {
		t.Error("failed write must not mark the region available")
	}
	if got := g.Coverage(); got != 0 {
		t.Errorf("Coverage() = %v, want 0", got)
	}
}

func TestGatedSetRejectsWrongSize(t *testing.T) {
	g := newGated(t, 4, 3)
	_, err := g.Set(ndarray.Selection{ndarray.At(0), ndarray.Full(3)}, values(4, 0))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if ok, _ := g.Available(ndarray.Selection{ndarray.At(0), ndarray.Full(3)}); ok {
		t.Error("failed write must not mark the region available")
	}
}

func TestGatedOutOfRange(t *testing.T) {
	g := newGated(t, 4, 3)
	_, _, err := g.Get(ndarray.Selection{ndarray.At(4), ndarray.Full(3)})
	if !errors.HasCode(err, errors.ErrCodeOutOfRange) {
		t.Errorf("expected OUT_OF_RANGE from Get, got %v", err)
	}
	_, err = g.Set(ndarray.Selection{ndarray.At(0), ndarray.Span(2, 2)}, values(2, 0))
	if !errors.HasCode(err, errors.ErrCodeOutOfRange) {
		t.Errorf("expected OUT_OF_RANGE from Set, got %v", err)
	}
}

func TestGatedConcurrentDisjointWriters(t *testing.T) {
	const rows = 64
	g := newGated(t, rows, 8)

	var wg sync.WaitGroup
	for r := range rows {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			sel := ndarray.Selection{ndarray.At(r), ndarray.Full(8)}
			if _, err := g.Set(sel, values(8, float64(r*8))); err != nil {
				t.Errorf("Set row %d: %v", r, err)
			}
		}(r)
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			sel := ndarray.Selection{ndarray.At(r), ndarray.Full(8)}
			if b, ok, _ := g.Get(sel); ok && b.Data[7] != float64(r*8+7) {
				t.Errorf("row %d visible before its data: %v", r, b.Data)
			}
		}(r)
	}
	wg.Wait()

	all, ok, err := g.Get(ndarray.All([]int{rows, 8}))
	if err != nil || !ok {
		t.Fatalf("expected whole array available, ok=%v err=%v", ok, err)
	}
	for i, v := range all.Data {
		if v != float64(i) {
			t.Fatalf("element %d = %v", i, v)
		}
	}
}

func TestAlwaysAvailableIndexing(t *testing.T) {
	data, _ := ndarray.NewDense[float64](3, 1, 4)
	copy(data.Data(), values(12, 0).Data)
	o := NewAlwaysAvailable(data)

	b, ok, err := o.Get(ndarray.Selection{ndarray.At(2), ndarray.Full(1), ndarray.Full(4)})
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if !slices.Equal(b.Shape, []int{1, 4}) {
		t.Errorf("only point dimensions should be dropped, got %v", b.Shape)
	}
	if !slices.Equal(b.Data, []float64{8, 9, 10, 11}) {
		t.Errorf("unexpected data %v", b.Data)
	}

	if _, err := o.Set(ndarray.Selection{ndarray.At(0), ndarray.Full(1), ndarray.Full(4)}, values(4, 100)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data.Data()[3] != 103 {
		t.Errorf("write did not reach the backing array")
	}
	if o.Backing() != data || !slices.Equal(o.Shape(), []int{3, 1, 4}) {
		t.Error("accessors should expose the backing array")
	}
	if err := o.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestOverlayInterface(t *testing.T) {
	var _ Overlay = (*Gated)(nil)
	var _ Overlay = (*AlwaysAvailable)(nil)
}
