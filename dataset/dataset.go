package dataset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/overlay"
	"github.com/kbukum/tomoflow/validation"
)

// File is where a dataset is persisted: a backing file and the group
// inside it.
type File struct {
	Filename string `json:"filename"`
	Group    string `json:"group"`
}

// Dataset is a named, shaped and labeled N-dimensional array with its
// access patterns. Shape, labels and patterns are fixed once the stage
// that created the dataset has finished its setup.
type Dataset struct {
	name     string
	shape    []int
	labels   []AxisLabel
	patterns map[string]Pattern
	order    []string
	backing  overlay.Overlay

	// Meta holds free-form metadata such as scan positions.
	Meta map[string]any
	// File is the output identity assigned by the pipeline.
	File File
}

// New returns an unshaped dataset.
func New(name string) *Dataset {
	return &Dataset{
		name:     name,
		patterns: make(map[string]Pattern),
		Meta:     make(map[string]any),
	}
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Shape returns a copy of the dataset's extents; nil before Create.
func (d *Dataset) Shape() []int { return slices.Clone(d.shape) }

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return len(d.shape) }

// Shaped reports whether Create has been called.
func (d *Dataset) Shaped() bool { return d.shape != nil }

// Labels returns the axis labels in dimension order.
func (d *Dataset) Labels() []AxisLabel { return slices.Clone(d.labels) }

// Create fixes the shape and axis labels. A nil labels slice gives every
// dimension a placeholder label.
func (d *Dataset) Create(shape []int, labels []AxisLabel) error {
	v := validation.New().Extents(d.name+".shape", shape)
	if labels != nil {
		v.Custom(len(labels) == len(shape), d.name+".axis_labels",
			fmt.Sprintf("expected %d labels, got %d", len(shape), len(labels)))
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if labels == nil {
		labels = defaultLabels(len(shape))
	}
	d.shape = slices.Clone(shape)
	d.labels = slices.Clone(labels)
	return nil
}

// SetLabel replaces the label of one dimension.
func (d *Dataset) SetLabel(dim int, label AxisLabel) error {
	if dim < 0 || dim >= len(d.labels) {
		return errors.OutOfRange(dim, dim, 1, len(d.labels))
	}
	d.labels[dim] = label
	return nil
}

// AddPattern registers a pattern. core and slice must be disjoint and
// together cover every dimension. Adding a name twice replaces the pattern
// but keeps its original position.
func (d *Dataset) AddPattern(name string, core, slice []int) error {
	if !d.Shaped() {
		return errors.InvalidPattern(d.name, name, "dataset has no shape yet")
	}
	p := NewPattern(core, slice)
	if reason := p.partitionError(len(d.shape)); reason != "" {
		return errors.InvalidPattern(d.name, name, reason)
	}
	if _, ok := d.patterns[name]; !ok {
		d.order = append(d.order, name)
	}
	d.patterns[name] = p
	return nil
}

// Pattern looks up a pattern by name.
func (d *Dataset) Pattern(name string) (Pattern, error) {
	p, ok := d.patterns[name]
	if !ok {
		return Pattern{}, errors.NotFound("pattern", name).WithDetail("dataset", d.name)
	}
	return p.Clone(), nil
}

// PatternNames returns the pattern names in registration order.
func (d *Dataset) PatternNames() []string { return slices.Clone(d.order) }

// Patterns returns every pattern in registration order.
func (d *Dataset) Patterns() []NamedPattern {
	out := make([]NamedPattern, len(d.order))
	for i, name := range d.order {
		out[i] = NamedPattern{Name: name, Pattern: d.patterns[name].Clone()}
	}
	return out
}

// RequireSingleCoreDir returns the only core direction of the named
// pattern, failing when the pattern has more than one.
func (d *Dataset) RequireSingleCoreDir(name string) (int, error) {
	p, err := d.Pattern(name)
	if err != nil {
		return 0, err
	}
	if len(p.CoreDir) != 1 {
		return 0, errors.InvalidPattern(d.name, name,
			fmt.Sprintf("exactly one core direction is supported, found %d", len(p.CoreDir)))
	}
	return p.CoreDir[0], nil
}

// CopyMeta copies shape, labels, patterns and metadata from src, as an
// in-place stage does for its outputs.
func (d *Dataset) CopyMeta(src *Dataset) error {
	if !src.Shaped() {
		return errors.InvalidInput(src.name, "source dataset has no shape")
	}
	d.shape = slices.Clone(src.shape)
	d.labels = slices.Clone(src.labels)
	d.patterns = make(map[string]Pattern, len(src.patterns))
	for name, p := range src.patterns {
		d.patterns[name] = p.Clone()
	}
	d.order = slices.Clone(src.order)
	d.Meta = maps.Clone(src.Meta)
	if d.Meta == nil {
		d.Meta = make(map[string]any)
	}
	return nil
}

// Attach binds the overlay that serves reads and writes.
func (d *Dataset) Attach(o overlay.Overlay) { d.backing = o }

// Backing returns the attached overlay, or nil.
func (d *Dataset) Backing() overlay.Overlay { return d.backing }

func (d *Dataset) String() string {
	return fmt.Sprintf("%s%v", d.name, d.shape)
}
