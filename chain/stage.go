package chain

import (
	"maps"
	"slices"

	"github.com/kbukum/tomoflow/dataset"
)

// Descriptor is one entry of a process file: which stage to run, the
// dataset names it was given, and its parameters. Resolve rewrites In and
// Out with the resolved names.
type Descriptor struct {
	ID     string
	Name   string
	In     []NameSpec
	Out    []NameSpec
	Params map[string]any
}

// Clone returns a copy that shares no slices or maps with d.
func (d Descriptor) Clone() Descriptor {
	d.In = slices.Clone(d.In)
	d.Out = slices.Clone(d.Out)
	d.Params = maps.Clone(d.Params)
	return d
}

// Stage is the part of a pipeline stage the linker talks to.
type Stage interface {
	// ID is the stage type identifier, e.g. "tomoflow.filters.scale".
	ID() string
	// DefaultDatasets are used for a side the descriptor leaves empty.
	DefaultDatasets() (in, out []string)
	// RequiredDatasets are the counts each side must resolve to.
	RequiredDatasets() (in, out Count)
	// BindParameters receives the descriptor with resolved names.
	BindParameters(desc Descriptor) error
	// SetupDatasets shapes the fresh outputs from the inputs.
	SetupDatasets(in, out []*dataset.Dataset) error
}
