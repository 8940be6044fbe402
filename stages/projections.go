package stages

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/plugin"
)

// DefaultStepThreshold is the smallest coordinate difference counted as a
// step when step sizes are derived from the scan positions.
const DefaultStepThreshold = 0.1

type projectionParams struct {
	StepSizeX     *float64 `mapstructure:"step_size_x" validate:"omitempty,gt=0"`
	StepSizeY     *float64 `mapstructure:"step_size_y" validate:"omitempty,gt=0"`
	StepThreshold float64  `mapstructure:"step_threshold" validate:"gte=0"`
}

// grid is a regular x/y grid. Cell (i, j) is centred on
// (minX + i*stepX, minY + j*stepY).
type grid struct {
	minX, minY   float64
	stepX, stepY float64
	nx, ny       int
}

func (g grid) cell(x, y float64) int {
	i := min(max(int(math.Round((x-g.minX)/g.stepX)), 0), g.nx-1)
	j := min(max(int(math.Round((y-g.minY)/g.stepY)), 0), g.ny-1)
	return i*g.ny + j
}

// ListToProjections turns each frame of a point list, one value per scan
// position, into a 2D x/y projection. The point dimension becomes x and a
// new y dimension is inserted right after it.
type ListToProjections struct {
	plugin.Base
	params projectionParams
	grid   grid
	cells  []int
}

var _ plugin.FrameProcessor = (*ListToProjections)(nil)

func NewListToProjections() *ListToProjections {
	return &ListToProjections{Base: plugin.NewBase(ListToProjectionsID, chain.Fixed(1), chain.Fixed(1), nil, nil)}
}

func (s *ListToProjections) BindParameters(desc chain.Descriptor) error {
	if err := s.Base.BindParameters(desc); err != nil {
		return err
	}
	s.params = projectionParams{StepThreshold: DefaultStepThreshold}
	return plugin.DecodeParams(desc.Params, &s.params)
}

func (s *ListToProjections) PatternName() string { return dataset.PatternProjection }

// MaxFrames is one: each frame is a single point list.
func (s *ListToProjections) MaxFrames() int { return 1 }

func (s *ListToProjections) SetupDatasets(in, out []*dataset.Dataset) error {
	src, dst := in[0], out[0]
	core, err := src.RequireSingleCoreDir(dataset.PatternProjection)
	if err != nil {
		return err
	}
	xs, ys, err := positions(src)
	if err != nil {
		return err
	}
	if len(xs) != src.Shape()[core] {
		return errors.InvalidInput("xy",
			fmt.Sprintf("%d scan positions for %d points along dimension %d", len(xs), src.Shape()[core], core))
	}
	if s.grid, err = s.makeGrid(xs, ys); err != nil {
		return err
	}
	s.cells = make([]int, len(xs))
	for i := range xs {
		s.cells[i] = s.grid.cell(xs[i], ys[i])
	}

	shape := src.Shape()
	shape[core] = s.grid.nx
	shape = append(shape[:core+1], append([]int{s.grid.ny}, shape[core+1:]...)...)

	labels := src.Labels()
	labels[core] = dataset.AxisLabel{Name: "x", Unit: "microns"}
	labels = append(labels[:core+1], append([]dataset.AxisLabel{{Name: "y", Unit: "microns"}}, labels[core+1:]...)...)

	if err := dst.Create(shape, labels); err != nil {
		return err
	}
	for _, np := range src.Patterns() {
		p := np.InsertDim(core + 1)
		if np.Name == dataset.PatternProjection {
			slice := slices.DeleteFunc(allDims(len(shape)), func(d int) bool { return d == core || d == core+1 })
			p = dataset.NewPattern([]int{core, core + 1}, slice)
		}
		if err := dst.AddPattern(np.Name, p.CoreDir, p.SliceDir); err != nil {
			return err
		}
	}
	for k, v := range src.Meta {
		dst.Meta[k] = v
	}
	return nil
}

// ProcessFrame averages the points falling into each grid cell. Cells
// without points are zero.
func (s *ListToProjections) ProcessFrame(_ context.Context, in []ndarray.Block[float64]) ([]ndarray.Block[float64], error) {
	values := in[0].Data
	if len(values) != len(s.cells) {
		return nil, errors.InvalidInput(ListToProjectionsID,
			fmt.Sprintf("frame has %d values, expected %d scan points", len(values), len(s.cells)))
	}
	out := ndarray.NewBlock[float64](s.grid.nx, s.grid.ny)
	hits := make([]int, len(out.Data))
	for i, c := range s.cells {
		out.Data[c] += values[i]
		hits[c]++
	}
	for c, n := range hits {
		if n > 1 {
			out.Data[c] /= float64(n)
		}
	}
	return []ndarray.Block[float64]{out}, nil
}

func (s *ListToProjections) makeGrid(xs, ys []float64) (grid, error) {
	stepX, err := s.stepSize("x", s.params.StepSizeX, xs)
	if err != nil {
		return grid{}, err
	}
	stepY, err := s.stepSize("y", s.params.StepSizeY, ys)
	if err != nil {
		return grid{}, err
	}
	minX, maxX := bounds(xs)
	minY, maxY := bounds(ys)
	return grid{
		minX:  minX,
		minY:  minY,
		stepX: stepX,
		stepY: stepY,
		nx:    int(math.Round((maxX-minX)/stepX)) + 1,
		ny:    int(math.Round((maxY-minY)/stepY)) + 1,
	}, nil
}

// stepSize returns the configured step, or the smallest difference between
// consecutive coordinates that exceeds the step threshold.
func (s *ListToProjections) stepSize(axis string, fixed *float64, coords []float64) (float64, error) {
	if fixed != nil {
		return *fixed, nil
	}
	step := math.Inf(1)
	for i := 1; i < len(coords); i++ {
		if d := math.Abs(coords[i] - coords[i-1]); d > s.params.StepThreshold {
			step = min(step, d)
		}
	}
	if math.IsInf(step, 1) {
		if lo, hi := bounds(coords); hi-lo <= s.params.StepThreshold {
			return 1, nil
		}
		return 0, errors.InvalidInput("step_size_"+axis,
			fmt.Sprintf("no %s step above %g in the scan positions", axis, s.params.StepThreshold))
	}
	return step, nil
}

func positions(d *dataset.Dataset) (xs, ys []float64, err error) {
	xy, ok := d.Meta["xy"].([][]float64)
	if !ok || len(xy) != 2 || len(xy[0]) != len(xy[1]) {
		return nil, nil, errors.InvalidInput("xy", fmt.Sprintf("dataset %s has no scan positions", d.Name()))
	}
	return xy[0], xy[1], nil
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo, hi = min(lo, x), max(hi, x)
	}
	return lo, hi
}

func allDims(rank int) []int {
	dims := make([]int, rank)
	for i := range dims {
		dims[i] = i
	}
	return dims
}
