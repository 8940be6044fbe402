// Package driver loads a process into a chain of resolved stages and runs
// it frame by frame.
package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/tomoflow/backing"
	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/naming"
	"github.com/kbukum/tomoflow/observability"
	"github.com/kbukum/tomoflow/overlay"
	"github.com/kbukum/tomoflow/plugin"
	"github.com/kbukum/tomoflow/storage"
)

// step is one resolved intermediate stage.
type step struct {
	index   int
	desc    chain.Descriptor
	stage   plugin.FrameProcessor
	binding *chain.Binding
}

// Driver runs one process. It is single-use: Load, Execute, Close.
type Driver struct {
	cfg      Config
	registry *plugin.Registry
	store    storage.Storage
	log      *logger.Logger
	metrics  *observability.Metrics
	runID    string

	mu         sync.RWMutex
	process    string
	ns         *chain.Namespace
	source     plugin.Source
	sink       plugin.Sink
	steps      []*step
	history    []Snapshot
	files      *backing.Files
	state      State
	startedAt  time.Time
	finishedAt time.Time
	executed   int
	err        error
	closed     bool
}

// Option customises a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithMetrics records frame and stage metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(d *Driver) { d.runID = id }
}

// New creates a driver that instantiates stages from registry and
// persists backing files to store.
func New(cfg Config, registry *plugin.Registry, store storage.Storage, opts ...Option) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:      cfg,
		registry: registry,
		store:    store,
		log:      logger.GetGlobalLogger(),
		runID:    uuid.NewString(),
		state:    StateNew,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithComponent("driver").WithFields(logger.Fields(logger.FieldRunID, d.runID))
	return d, nil
}

// RunID identifies this run in logs, spans and status reports.
func (d *Driver) RunID() string { return d.runID }

// Run loads, executes and closes p. Backing files are closed even when
// loading or execution fails.
func (d *Driver) Run(ctx context.Context, p *plugin.Process) (err error) {
	ctx = logger.ContextWithRunID(ctx, d.runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun,
		attribute.String(observability.AttrRunID, d.runID))
	defer func() { observability.EndSpan(span, err) }()

	defer func() {
		if cerr := d.Close(ctx); cerr != nil {
			err = stderrors.Join(err, cerr)
		}
	}()
	if err := d.Load(ctx, p); err != nil {
		return err
	}
	return d.Execute(ctx)
}

// Load instantiates every stage of p and resolves the intermediate ones
// in order. The first stage must be a source and the last a sink.
func (d *Driver) Load(ctx context.Context, p *plugin.Process) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateNew {
		return errors.New(errors.ErrCodeInvalidInput, "driver has already loaded a process")
	}
	if len(p.Stages) < 2 {
		return errors.InvalidInput("process", "a process needs a source and a sink stage")
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanLoad)
	err := d.load(ctx, p)
	observability.EndSpan(span, err)
	if err != nil {
		d.fail(err)
	}
	return err
}

func (d *Driver) load(ctx context.Context, p *plugin.Process) error {
	d.process = p.Name
	d.startedAt = time.Now()
	d.ns = chain.NewNamespace()
	d.files = backing.NewFiles(d.store, d.log).WithRetry(d.cfg.Retry)
	last := len(p.Stages) - 1

	if err := d.loadSource(ctx, p.Stages[0]); err != nil {
		return err
	}
	if err := d.loadSink(last, p.Stages[last]); err != nil {
		return err
	}

	basename := d.cfg.Basename
	if basename == "" {
		basename = p.Name
	}
	namer := naming.Namer{Basename: basename, OutPath: d.cfg.OutPath, Ext: d.cfg.Ext}
	for i := 1; i < last; i++ {
		if err := d.loadStage(ctx, i, p.Stages[i], namer); err != nil {
			return d.loadFailed(p.Stages[i].ID, i, err)
		}
	}

	d.state = StateLoaded
	d.log.Info("process loaded", logger.Fields(
		"process", p.Name,
		"stages", len(p.Stages),
		"outputs", len(d.ns.Names(chain.RoleOut)),
	))
	return nil
}

func (d *Driver) loadSource(ctx context.Context, desc chain.Descriptor) error {
	s, err := d.registry.New(desc.ID)
	if err != nil {
		return d.loadFailed(desc.ID, 0, err)
	}
	src, ok := s.(plugin.Source)
	if !ok {
		return d.loadFailed(desc.ID, 0, errors.StageLoad(desc.ID, fmt.Errorf("the first stage must be a source")))
	}
	if err := src.BindParameters(desc); err != nil {
		return d.loadFailed(desc.ID, 0, err)
	}
	if err := src.Populate(ctx, d.ns); err != nil {
		return d.loadFailed(desc.ID, 0, err)
	}
	d.source = src
	return nil
}

func (d *Driver) loadSink(index int, desc chain.Descriptor) error {
	s, err := d.registry.New(desc.ID)
	if err != nil {
		return d.loadFailed(desc.ID, index, err)
	}
	sink, ok := s.(plugin.Sink)
	if !ok {
		return d.loadFailed(desc.ID, index, errors.StageLoad(desc.ID, fmt.Errorf("the last stage must be a sink")))
	}
	if err := sink.BindParameters(desc); err != nil {
		return d.loadFailed(desc.ID, index, err)
	}
	d.sink = sink
	return nil
}

func (d *Driver) loadFailed(stageID string, index int, err error) error {
	d.log.Error("failed to load stage", logger.MergeWithError(logger.StageFields(stageID, index), err))
	return err
}

// loadStage resolves one intermediate stage, names and backs its outputs,
// lets the sink see the new namespace and records a snapshot.
func (d *Driver) loadStage(ctx context.Context, index int, desc chain.Descriptor, namer naming.Namer) (err error) {
	ctx, op := observability.StartStage(ctx, d.metrics, desc.ID, index, observability.PhaseResolve)
	defer func() { op.End(ctx, err) }()

	s, err := d.registry.New(desc.ID)
	if err != nil {
		return err
	}
	proc, ok := s.(plugin.FrameProcessor)
	if !ok {
		return errors.StageLoad(desc.ID, fmt.Errorf("stage does not process frames"))
	}

	desc = desc.Clone()
	b, err := chain.Resolve(&desc, proc, d.ns)
	if err != nil {
		return err
	}
	if len(b.InSets) == 0 && len(b.OutSets) == 0 {
		return errors.StageLoad(desc.ID, fmt.Errorf("stage reads and writes no datasets"))
	}

	names := namer.Assign(index-1, proc.ID(), proc.Name(), b.Out)
	for _, ds := range b.OutSets {
		out := names[ds.Name()]
		ds.File = dataset.File{Filename: out.Filename, Group: out.Group}
		if err := d.attach(ds); err != nil {
			return err
		}
		d.log.Debug("output named", logger.OutputFields(ds.Name(), out.Filename, out.Group))
	}

	if err := d.sink.Setup(d.ns); err != nil {
		return err
	}
	d.steps = append(d.steps, &step{index: index, desc: desc, stage: proc, binding: b})
	d.history = append(d.history, d.snapshot(index, desc.ID))
	d.log.Info("stage loaded", logger.Fields(
		logger.FieldStage, desc.ID,
		logger.FieldStageIndex, index,
		"in", b.In,
		"out", b.Out,
	))
	return nil
}

// attach backs ds with a gated overlay over a new group of its file.
func (d *Driver) attach(ds *dataset.Dataset) error {
	meta := backing.Meta{Dataset: ds.Name(), Patterns: make(map[string]backing.PatternMeta)}
	for _, l := range ds.Labels() {
		meta.Labels = append(meta.Labels, l.String())
	}
	for _, p := range ds.Patterns() {
		meta.Patterns[p.Name] = backing.PatternMeta{Core: p.CoreDir, Slice: p.SliceDir}
	}
	arr, err := d.files.Create(ds.File.Filename, ds.File.Group, ds.Shape(), meta)
	if err != nil {
		return err
	}
	g, err := overlay.NewGated(arr)
	if err != nil {
		return err
	}
	ds.Attach(g)
	return nil
}

func (d *Driver) snapshot(index int, stageID string) Snapshot {
	records := d.ns.Records()
	s := Snapshot{StageIndex: index, StageID: stageID, Resolved: records[len(records)-1]}
	for _, ds := range d.ns.Outputs() {
		s.Outputs = append(s.Outputs, describe(ds))
	}
	return s
}

// Execute streams the frames of every loaded stage in order.
func (d *Driver) Execute(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateLoaded {
		d.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("cannot execute a driver in state %s", d.state))
	}
	d.state = StateExecuting
	steps := slices.Clone(d.steps)
	d.mu.Unlock()

	start := time.Now()
	for _, st := range steps {
		if err := d.executeStep(ctx, st); err != nil {
			d.log.Error("stage failed", logger.MergeWithError(logger.StageFields(st.desc.ID, st.index), err))
			d.mu.Lock()
			d.fail(err)
			d.mu.Unlock()
			return err
		}
		d.mu.Lock()
		d.executed++
		d.mu.Unlock()
	}

	d.mu.Lock()
	d.state = StateDone
	d.finishedAt = time.Now()
	d.mu.Unlock()
	d.log.Info("process executed", logger.DurationFields("execute", time.Since(start)))
	return nil
}

// fail records err; callers hold d.mu.
func (d *Driver) fail(err error) {
	d.state = StateFailed
	d.err = err
	d.finishedAt = time.Now()
}

// Close closes every backing file exactly once. It is safe to call more
// than once and before Load.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed || d.files == nil {
		d.closed = true
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	files := d.files
	d.mu.Unlock()

	if err := files.Close(ctx); err != nil {
		return err
	}
	d.log.Debug("backing files closed", logger.Fields("files", len(files.Filenames())))
	return nil
}

// History returns a snapshot per loaded intermediate stage, in order.
func (d *Driver) History() []Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.history)
}

// Namespace returns the run's namespace, nil before Load.
func (d *Driver) Namespace() *chain.Namespace {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ns
}

// Files returns the run's backing files, nil before Load.
func (d *Driver) Files() *backing.Files {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.files
}

// Status reports the run's progress.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Status{
		RunID:     d.runID,
		Process:   d.process,
		State:     d.state,
		StartedAt: d.startedAt,
		Stages:    len(d.steps),
		Executed:  d.executed,
		History:   slices.Clone(d.history),
	}
	if !d.finishedAt.IsZero() {
		t := d.finishedAt
		s.FinishedAt = &t
	}
	if d.err != nil {
		s.Error = d.err.Error()
	}
	return s
}

// Dataset describes the current dataset registered under name.
func (d *Driver) Dataset(name string) (DatasetInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ns == nil {
		return DatasetInfo{}, errors.NotFound("dataset", name)
	}
	ds, err := d.ns.Get(name)
	if err != nil {
		return DatasetInfo{}, err
	}
	return describe(ds), nil
}

// Datasets describes every dataset in the namespace.
func (d *Driver) Datasets() []DatasetInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ns == nil {
		return nil
	}
	var out []DatasetInfo
	for _, ds := range d.ns.Datasets() {
		out = append(out, describe(ds))
	}
	return out
}
