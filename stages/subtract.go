package stages

import (
	"context"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/plugin"
)

// Subtract writes its first input minus its second. By default the result
// replaces the first input.
type Subtract struct {
	plugin.Base
}

var _ plugin.FrameProcessor = (*Subtract)(nil)

func NewSubtract() *Subtract {
	return &Subtract{Base: plugin.NewBase(SubtractID, chain.Fixed(2), chain.Fixed(1), nil, []string{"in_datasets[0]"})}
}

func (s *Subtract) BindParameters(desc chain.Descriptor) error {
	if err := s.Base.BindParameters(desc); err != nil {
		return err
	}
	var none struct{}
	return plugin.DecodeParams(desc.Params, &none)
}

func (s *Subtract) SetupDatasets(in, out []*dataset.Dataset) error {
	for _, d := range in {
		if _, err := d.Pattern(dataset.PatternProjection); err != nil {
			return err
		}
	}
	return out[0].CopyMeta(in[0])
}

func (s *Subtract) PatternName() string { return dataset.PatternProjection }

func (s *Subtract) ProcessFrame(_ context.Context, in []ndarray.Block[float64]) ([]ndarray.Block[float64], error) {
	if err := sameSize(SubtractID, in...); err != nil {
		return nil, err
	}
	out := in[0].Clone()
	for i, v := range in[1].Data {
		out.Data[i] -= v
	}
	return []ndarray.Block[float64]{out}, nil
}
