package stages

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/overlay"
	"github.com/kbukum/tomoflow/plugin"
)

// DefaultSourceName names the dataset of a source without out_datasets.
const DefaultSourceName = "tomo"

type patternParams struct {
	Core  []int `mapstructure:"core"`
	Slice []int `mapstructure:"slice"`
}

type syntheticParams struct {
	Shape    []int                    `mapstructure:"shape" validate:"required,min=1,dive,gt=0"`
	Labels   []string                 `mapstructure:"labels" validate:"omitempty,dive,axislabel"`
	Patterns map[string]patternParams `mapstructure:"patterns"`
	// XY holds scan positions: a row of x and a row of y coordinates.
	XY [][]float64 `mapstructure:"xy" validate:"omitempty,len=2"`
	// Step separates the values of consecutive datasets.
	Step float64 `mapstructure:"step"`
}

// Synthetic is a source producing deterministic ramps: element i of the
// k-th dataset holds i + k*step.
type Synthetic struct {
	plugin.Base
	params syntheticParams
}

var _ plugin.Source = (*Synthetic)(nil)

func NewSynthetic() *Synthetic {
	return &Synthetic{Base: plugin.NewBase(SyntheticID, chain.Fixed(0), chain.Variable(), nil, []string{DefaultSourceName})}
}

func (s *Synthetic) BindParameters(desc chain.Descriptor) error {
	if err := s.Base.BindParameters(desc); err != nil {
		return err
	}
	s.params = syntheticParams{Step: 1000}
	return plugin.DecodeParams(desc.Params, &s.params)
}

// SetupDatasets is unused; sources create their datasets in Populate.
func (s *Synthetic) SetupDatasets(_, _ []*dataset.Dataset) error { return nil }

// Populate creates, fills and registers one dataset per declared output.
func (s *Synthetic) Populate(_ context.Context, ns *chain.Namespace) error {
	_, names := s.Declared()
	if len(names) == 0 {
		_, names = s.DefaultDatasets()
	}
	for k, name := range names {
		d, err := s.build(name, float64(k)*s.params.Step)
		if err != nil {
			return err
		}
		if err := ns.AddSource(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthetic) build(name string, offset float64) (*dataset.Dataset, error) {
	p := s.params
	d := dataset.New(name)
	var labels []dataset.AxisLabel
	if len(p.Labels) > 0 {
		labels = dataset.ParseAxisLabels(p.Labels)
	}
	if err := d.Create(p.Shape, labels); err != nil {
		return nil, err
	}

	patterns := p.Patterns
	if len(patterns) == 0 {
		patterns = defaultPatterns(len(p.Shape))
	}
	for _, pname := range slices.Sorted(maps.Keys(patterns)) {
		pp := patterns[pname]
		if err := d.AddPattern(pname, pp.Core, pp.Slice); err != nil {
			return nil, err
		}
	}

	if p.XY != nil {
		if len(p.XY[0]) != len(p.XY[1]) {
			return nil, errors.InvalidInput("xy", fmt.Sprintf("%d x positions but %d y positions", len(p.XY[0]), len(p.XY[1])))
		}
		d.Meta["xy"] = p.XY
	}

	data, err := ndarray.NewDense[float64](p.Shape...)
	if err != nil {
		return nil, err
	}
	values := data.Data()
	for i := range values {
		values[i] = float64(i) + offset
	}
	d.Attach(overlay.NewAlwaysAvailable(data))
	return d, nil
}

// defaultPatterns gives a rank-1 dataset one frame, a rank-2 dataset
// frames along its first dimension, and higher ranks 2D projections
// stepped along the leading dimensions plus sinograms.
func defaultPatterns(rank int) map[string]patternParams {
	all := make([]int, rank)
	for i := range all {
		all[i] = i
	}
	switch rank {
	case 1:
		return map[string]patternParams{dataset.PatternProjection: {Core: all}}
	case 2:
		return map[string]patternParams{dataset.PatternProjection: {Core: []int{1}, Slice: []int{0}}}
	}
	return map[string]patternParams{
		dataset.PatternProjection: {Core: all[rank-2:], Slice: all[:rank-2]},
		dataset.PatternSinogram:   {Core: []int{0, rank - 1}, Slice: all[1 : rank-1]},
	}
}
