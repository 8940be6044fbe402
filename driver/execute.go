package driver

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/ndarray"
	"github.com/kbukum/tomoflow/observability"
	"github.com/kbukum/tomoflow/stream"
)

// port is one side of a stage bound to a pattern: the dataset, its pattern
// and its shape, fixed for the duration of the stage.
type port struct {
	ds      *dataset.Dataset
	pattern dataset.Pattern
	shape   []int
}

func bindPorts(sets []*dataset.Dataset, patternName string) ([]port, error) {
	ports := make([]port, len(sets))
	for i, ds := range sets {
		p, err := ds.Pattern(patternName)
		if err != nil {
			return nil, err
		}
		if ds.Backing() == nil {
			return nil, errors.Internal(fmt.Errorf("dataset %s has no backing", ds.Name()))
		}
		ports[i] = port{ds: ds, pattern: p, shape: ds.Shape()}
	}
	return ports, nil
}

// frameSource is the dataset whose frames drive a stage: its first input,
// or its first output for a stage that reads nothing.
func frameSource(b *chain.Binding) *dataset.Dataset {
	if len(b.InSets) > 0 {
		return b.InSets[0]
	}
	return b.OutSets[0]
}

// executeStep streams every frame of the stage's frame source through
// ProcessFrame and writes the results to the same frame of each output.
func (d *Driver) executeStep(ctx context.Context, st *step) (err error) {
	ctx, op := observability.StartStage(ctx, d.metrics, st.desc.ID, st.index, observability.PhaseExecute)
	defer func() { op.End(ctx, err) }()

	patternName := st.stage.PatternName()
	maxFrames := st.stage.MaxFrames()
	if maxFrames <= 0 {
		maxFrames = d.cfg.MaxFrames
	}
	ins, err := bindPorts(st.binding.InSets, patternName)
	if err != nil {
		return err
	}
	outs, err := bindPorts(st.binding.OutSets, patternName)
	if err != nil {
		return err
	}
	frames, err := frameSource(st.binding).Frames(patternName, maxFrames)
	if err != nil {
		return err
	}
	op.SetAttributes(
		attribute.String(observability.AttrPattern, patternName),
		attribute.Int(observability.AttrFrames, len(frames)),
	)

	log := d.log.WithContext(ctx).WithFields(logger.StageFields(st.desc.ID, st.index))
	log.Info("executing stage", logger.Fields(
		logger.FieldPattern, patternName,
		logger.FieldFrames, len(frames),
		"max_frames", maxFrames,
	))

	process := func(ctx context.Context, f dataset.Frame) (dataset.Frame, error) {
		return f, d.processFrame(ctx, st, ins, outs, f)
	}
	written := stream.Parallel(stream.FromSlice(frames), d.cfg.MaxParallel, process)
	counted := stream.Tap(written, func(ctx context.Context, _ dataset.Frame) error {
		for _, o := range outs {
			d.metrics.RecordFrames(ctx, st.desc.ID, o.ds.Name(), 1)
		}
		return nil
	})
	if err := stream.Drain(ctx, counted); err != nil {
		return err
	}
	log.Debug("stage executed", logger.DurationFields("execute", op.Duration()))
	return nil
}

func (d *Driver) processFrame(ctx context.Context, st *step, ins, outs []port, f dataset.Frame) error {
	blocks := make([]ndarray.Block[float64], len(ins))
	for i, in := range ins {
		sel, err := f.Selection(in.pattern, in.shape)
		if err != nil {
			return err
		}
		b, ok, err := in.ds.Backing().Get(sel)
		if err != nil {
			return err
		}
		if !ok {
			d.metrics.RecordFrameUnavailable(ctx, st.desc.ID, in.ds.Name())
			return errors.FrameUnavailable(in.ds.Name(), f.Index)
		}
		blocks[i] = b
	}

	results, err := st.stage.ProcessFrame(ctx, blocks)
	if err != nil {
		return err
	}
	if len(results) != len(outs) {
		return errors.Internal(fmt.Errorf("stage %s returned %d blocks for %d outputs", st.desc.ID, len(results), len(outs)))
	}
	for i, out := range outs {
		sel, err := f.Selection(out.pattern, out.shape)
		if err != nil {
			return err
		}
		if _, err := out.ds.Backing().Set(sel, results[i]); err != nil {
			return err
		}
	}
	return nil
}
