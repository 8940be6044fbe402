package plugin

import (
	"maps"
	"slices"

	"github.com/kbukum/tomoflow/chain"
)

// Base carries the bookkeeping every stage needs. Stages embed it and
// override what they must.
type Base struct {
	id          string
	name        string
	defaultIn   []string
	defaultOut  []string
	requiredIn  chain.Count
	requiredOut chain.Count
	params      map[string]any
	declaredIn  []string
	declaredOut []string
}

// NewBase describes a stage with the given dataset counts and defaults.
func NewBase(id string, in, out chain.Count, defaultIn, defaultOut []string) Base {
	return Base{
		id:          id,
		defaultIn:   defaultIn,
		defaultOut:  defaultOut,
		requiredIn:  in,
		requiredOut: out,
	}
}

func (b *Base) ID() string { return b.id }

// Name returns the descriptor's name, falling back to the last element of
// the stage ID.
func (b *Base) Name() string {
	if b.name != "" {
		return b.name
	}
	for i := len(b.id) - 1; i >= 0; i-- {
		if b.id[i] == '.' {
			return b.id[i+1:]
		}
	}
	return b.id
}

func (b *Base) DefaultDatasets() (in, out []string) {
	return slices.Clone(b.defaultIn), slices.Clone(b.defaultOut)
}

func (b *Base) RequiredDatasets() (in, out chain.Count) {
	return b.requiredIn, b.requiredOut
}

// BindParameters records the descriptor's name, dataset names and
// parameters.
func (b *Base) BindParameters(desc chain.Descriptor) error {
	b.name = desc.Name
	b.params = maps.Clone(desc.Params)
	b.declaredIn = chain.SpecStrings(desc.In)
	b.declaredOut = chain.SpecStrings(desc.Out)
	return nil
}

// Declared returns the dataset names of the bound descriptor. For resolved
// stages these are the resolved names.
func (b *Base) Declared() (in, out []string) {
	return slices.Clone(b.declaredIn), slices.Clone(b.declaredOut)
}

// Params returns the bound parameters.
func (b *Base) Params() map[string]any { return b.params }

// MaxFrames defers to the driver.
func (b *Base) MaxFrames() int { return 0 }
