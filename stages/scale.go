package stages

import (
	"context"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/plugin"
)

type scaleParams struct {
	Factor  float64 `mapstructure:"factor"`
	Pattern string  `mapstructure:"pattern" validate:"oneof=PROJECTION SINOGRAM SPECTRUM"`
}

// Scale multiplies its input by a constant factor, in place unless
// out_datasets says otherwise.
type Scale struct {
	plugin.Base
	params scaleParams
}

var _ plugin.FrameProcessor = (*Scale)(nil)

func NewScale() *Scale {
	return &Scale{Base: plugin.NewBase(ScaleID, chain.Fixed(1), chain.Fixed(1), nil, nil)}
}

func (s *Scale) BindParameters(desc chain.Descriptor) error {
	if err := s.Base.BindParameters(desc); err != nil {
		return err
	}
	s.params = scaleParams{Factor: 1, Pattern: dataset.PatternProjection}
	return plugin.DecodeParams(desc.Params, &s.params)
}

// SetupDatasets gives the output the input's shape, labels and patterns.
func (s *Scale) SetupDatasets(in, out []*dataset.Dataset) error {
	if _, err := in[0].Pattern(s.params.Pattern); err != nil {
		return err
	}
	return out[0].CopyMeta(in[0])
}

func (s *Scale) PatternName() string { return s.params.Pattern }

func (s *Scale) ProcessFrame(_ context.Context, in []ndarray.Block[float64]) ([]ndarray.Block[float64], error) {
	out := in[0].Clone()
	for i := range out.Data {
		out.Data[i] *= s.params.Factor
	}
	return []ndarray.Block[float64]{out}, nil
}
