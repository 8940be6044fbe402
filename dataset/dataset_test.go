package dataset

import (
	"slices"
	"testing"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/overlay"
)

func newTomo(t *testing.T) *Dataset {
	t.Helper()
	d := New("tomo")
	labels := ParseAxisLabels([]string{"rotation_angle.degrees", "detector_y.pixel", "detector_x.pixel"})
	if err := d.Create([]int{10, 20, 30}, labels); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := d.AddPattern(PatternProjection, []int{1, 2}, []int{0}); err != nil {
		t.Fatalf("AddPattern PROJECTION: %v", err)
	}
	if err := d.AddPattern(PatternSinogram, []int{0, 2}, []int{1}); err != nil {
		t.Fatalf("AddPattern SINOGRAM: %v", err)
	}
	return d
}

func TestAddPatternPartitionsDimensions(t *testing.T) {
	d := newTomo(t)
	for _, np := range d.Patterns() {
		seen := map[int]bool{}
		for _, dim := range append(slices.Clone(np.CoreDir), np.SliceDir...) {
			if seen[dim] {
				t.Errorf("%s: dimension %d appears twice", np.Name, dim)
			}
			seen[dim] = true
		}
		if len(seen) != d.Rank() {
			t.Errorf("%s covers %d of %d dimensions", np.Name, len(seen), d.Rank())
		}
	}
}

func TestAddPatternMissingSliceDimension(t *testing.T) {
	d := New("tomo")
	if err := d.Create([]int{10, 20, 30}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := d.AddPattern(PatternProjection, []int{0, 1}, nil)
	if !errors.IsPatternError(err) {
		t.Fatalf("expected pattern error, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["dataset"] != "tomo" || appErr.Details["pattern"] != PatternProjection {
		t.Errorf("error should name dataset and pattern, got %v", appErr.Details)
	}
}

func TestAddPatternInvalid(t *testing.T) {
	tests := []struct {
		name        string
		core, slice []int
	}{
		{"overlap", []int{0, 1}, []int{1, 2}},
		{"out of range", []int{0, 1}, []int{3}},
		{"negative", []int{-1, 1}, []int{0, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := New("x")
			_ = d.Create([]int{2, 3, 4}, nil)
			if err := d.AddPattern("P", tc.core, tc.slice); !errors.IsPatternError(err) {
				t.Errorf("expected pattern error, got %v", err)
			}
		})
	}
}

func TestAddPatternBeforeCreate(t *testing.T) {
	if err := New("x").AddPattern("P", []int{0}, nil); !errors.IsPatternError(err) {
		t.Errorf("expected pattern error on unshaped dataset, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	d := New("x")
	if err := d.Create([]int{3, 0}, nil); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for zero extent, got %v", err)
	}
	if err := d.Create([]int{3, 4}, ParseAxisLabels([]string{"a.b"})); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for label count mismatch, got %v", err)
	}
	if d.Shaped() {
		t.Error("failed Create must leave the dataset unshaped")
	}
	if err := d.Create([]int{3, 4}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := d.Labels()[1].String(); got != "dim1.unknown" {
		t.Errorf("default label = %q", got)
	}
}

func TestPatternLookup(t *testing.T) {
	d := newTomo(t)
	p, err := d.Pattern(PatternSinogram)
	if err != nil {
		t.Fatalf("Pattern: %v", err)
	}
	if !slices.Equal(p.CoreDir, []int{0, 2}) || !slices.Equal(p.SliceDir, []int{1}) {
		t.Errorf("unexpected pattern %+v", p)
	}
	if _, err := d.Pattern("TIMESERIES"); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if got := d.PatternNames(); !slices.Equal(got, []string{PatternProjection, PatternSinogram}) {
		t.Errorf("PatternNames() = %v", got)
	}
}

func TestRequireSingleCoreDir(t *testing.T) {
	d := New("points")
	_ = d.Create([]int{5, 100}, nil)
	_ = d.AddPattern(PatternProjection, []int{1}, []int{0})
	_ = d.AddPattern(PatternSpectrum, []int{0, 1}, nil)

	dim, err := d.RequireSingleCoreDir(PatternProjection)
	if err != nil || dim != 1 {
		t.Errorf("RequireSingleCoreDir() = %d, %v", dim, err)
	}
	if _, err := d.RequireSingleCoreDir(PatternSpectrum); !errors.IsPatternError(err) {
		t.Errorf("expected pattern error for two core dirs, got %v", err)
	}
}

func TestPatternInsertDim(t *testing.T) {
	p := NewPattern([]int{0}, []int{2, 1})
	got := p.InsertDim(1)
	if !slices.Equal(got.CoreDir, []int{0}) {
		t.Errorf("core = %v", got.CoreDir)
	}
	if !slices.Equal(got.SliceDir, []int{1, 2, 3}) {
		t.Errorf("slice = %v", got.SliceDir)
	}
	if got.partitionError(4) != "" {
		t.Errorf("remapped pattern should partition rank 4: %s", got.partitionError(4))
	}
}

func TestCopyMeta(t *testing.T) {
	src := newTomo(t)
	src.Meta["xy"] = [][]float64{{0, 1}, {0, 1}}
	dst := New("tomo_out")
	if err := dst.CopyMeta(src); err != nil {
		t.Fatalf("CopyMeta: %v", err)
	}
	if !slices.Equal(dst.Shape(), src.Shape()) || !slices.Equal(dst.PatternNames(), src.PatternNames()) {
		t.Error("shape and patterns should be copied")
	}
	dst.Meta["extra"] = true
	if _, ok := src.Meta["extra"]; ok {
		t.Error("metadata map must not be shared")
	}
	if err := New("x").CopyMeta(New("empty")); err == nil {
		t.Error("expected error copying from an unshaped dataset")
	}
}

func TestParseAxisLabel(t *testing.T) {
	if l := ParseAxisLabel("x.microns"); l.Name != "x" || l.Unit != "microns" {
		t.Errorf("unexpected label %+v", l)
	}
	if l := ParseAxisLabel("angle"); l.String() != "angle.unknown" {
		t.Errorf("unexpected label %q", l.String())
	}
}

func TestFramesChunkFirstSliceDirection(t *testing.T) {
	d := New("vol")
	_ = d.Create([]int{5, 2, 4}, nil)
	_ = d.AddPattern(PatternProjection, []int{2}, []int{0, 1})

	frames, err := d.Frames(PatternProjection, 2)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	// dim 0 chunked 2+2+1, dim 1 stepped twice
	if len(frames) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(frames))
	}
	if frames[0].Slice[0] != ndarray.Span(0, 2) || frames[0].Slice[1] != ndarray.At(0) {
		t.Errorf("frame 0 = %+v", frames[0])
	}
	if frames[2].Slice[0] != ndarray.Span(4, 1) || frames[2].Slice[1] != ndarray.At(0) {
		t.Errorf("frame 2 = %+v", frames[2])
	}
	if frames[3].Slice[0] != ndarray.Span(0, 2) || frames[3].Slice[1] != ndarray.At(1) {
		t.Errorf("frame 3 = %+v", frames[3])
	}

	covered := 0
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		p, _ := d.Pattern(PatternProjection)
		sel, err := f.Selection(p, d.Shape())
		if err != nil {
			t.Fatalf("Selection: %v", err)
		}
		if sel[2] != ndarray.Full(4) {
			t.Errorf("core direction should be whole, got %v", sel[2])
		}
		covered += sel.Size()
	}
	if covered != 5*2*4 {
		t.Errorf("frames cover %d elements, want %d", covered, 5*2*4)
	}
}

func TestFramesNoSliceDirection(t *testing.T) {
	d := New("img")
	_ = d.Create([]int{3, 3}, nil)
	_ = d.AddPattern("WHOLE", []int{0, 1}, nil)
	frames, err := d.Frames("WHOLE", 4)
	if err != nil || len(frames) != 1 {
		t.Fatalf("Frames() = %v, %v", frames, err)
	}
	p, _ := d.Pattern("WHOLE")
	sel, err := frames[0].Selection(p, d.Shape())
	if err != nil || sel.Size() != 9 {
		t.Errorf("Selection() = %v, %v", sel, err)
	}
}

func TestFrameSelectionMismatch(t *testing.T) {
	f := Frame{Slice: []ndarray.Range{ndarray.At(0)}}
	if _, err := f.Selection(NewPattern([]int{0}, []int{1, 2}), []int{2, 2, 2}); err == nil {
		t.Error("expected error for slice count mismatch")
	}
}

func TestAttachBacking(t *testing.T) {
	d := newTomo(t)
	data, _ := ndarray.NewDense[float64](d.Shape()...)
	o := overlay.NewAlwaysAvailable(data)
	d.Attach(o)
	if d.Backing() != o {
		t.Error("Backing() should return the attached overlay")
	}
}
