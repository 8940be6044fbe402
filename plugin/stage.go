package plugin

import (
	"context"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/ndarray"
)

// Stage is a pipeline stage.
type Stage interface {
	chain.Stage
	// Name is the display name used in output filenames.
	Name() string
}

// Source is the first stage of a process. Populate registers its datasets,
// with data attached, in the namespace.
type Source interface {
	Stage
	Populate(ctx context.Context, ns *chain.Namespace) error
}

// Sink is the last stage of a process. Setup is called with the updated
// namespace each time an intermediate stage has been resolved.
type Sink interface {
	Stage
	Setup(ns *chain.Namespace) error
}

// FrameProcessor transforms its input datasets frame by frame.
//
// ProcessFrame receives one block per input, read through the input's
// PatternName pattern with extent-1 slice dimensions removed, and returns
// one block per output. Each result is reshaped into the same frame of the
// matching output. ProcessFrame may be called concurrently.
type FrameProcessor interface {
	Stage
	PatternName() string
	// MaxFrames caps how many indices of the first slice direction one
	// frame covers. Zero defers to the driver's setting.
	MaxFrames() int
	ProcessFrame(ctx context.Context, in []ndarray.Block[float64]) ([]ndarray.Block[float64], error)
}
