// Package stages holds the stages that ship with tomoflow.
package stages

import (
	"fmt"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/plugin"
)

// Stage IDs.
const (
	SyntheticID         = "tomoflow.source.synthetic"
	ScaleID             = "tomoflow.filters.scale"
	SubtractID          = "tomoflow.filters.subtract"
	ListToProjectionsID = "tomoflow.filters.list_to_projections"
	RecordID            = "tomoflow.savers.record"
)

// Register adds every built-in stage to r.
func Register(r *plugin.Registry) error {
	for id, f := range map[string]plugin.Factory{
		SyntheticID:         func() plugin.Stage { return NewSynthetic() },
		ScaleID:             func() plugin.Stage { return NewScale() },
		SubtractID:          func() plugin.Stage { return NewSubtract() },
		ListToProjectionsID: func() plugin.Stage { return NewListToProjections() },
		RecordID:            func() plugin.Stage { return NewRecord() },
	} {
		if err := r.Register(id, f); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in stages.
func NewRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

func sameSize(stageID string, blocks ...ndarray.Block[float64]) error {
	for i, b := range blocks[1:] {
		if b.Size() != blocks[0].Size() {
			return errors.InvalidInput(stageID,
				fmt.Sprintf("frame of input %d has %d values, input 0 has %d", i+1, b.Size(), blocks[0].Size()))
		}
	}
	return nil
}
