package driver

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/tomoflow/backing"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/plugin"
	"github.com/kbukum/tomoflow/stages"
	"github.com/kbukum/tomoflow/storage"
	"github.com/kbukum/tomoflow/storage/local"
	"github.com/kbukum/tomoflow/storage/memory"
)

const darkProcess = `
name: demo
stages:
  - id: tomoflow.source.synthetic
    out_datasets: [tomo, dark]
    params:
      shape: [2, 3, 4]
  - id: tomoflow.filters.subtract
    in_datasets: [tomo, dark]
  - id: tomoflow.filters.scale
    in_datasets: [tomo]
    params:
      factor: 2
      pattern: SINOGRAM
  - id: tomoflow.savers.record
`

const gridProcess = `
name: grid
stages:
  - id: tomoflow.source.synthetic
    params:
      shape: [2, 4]
      xy: [[0, 1, 0, 1], [0, 0, 1, 1]]
  - id: tomoflow.filters.list_to_projections
  - id: tomoflow.savers.record
`

// testRegistry returns the built-in stages with rec as the record sink.
func testRegistry(t *testing.T, rec *stages.Record) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	r.MustRegister(stages.SyntheticID, func() plugin.Stage { return stages.NewSynthetic() })
	r.MustRegister(stages.SubtractID, func() plugin.Stage { return stages.NewSubtract() })
	r.MustRegister(stages.ScaleID, func() plugin.Stage { return stages.NewScale() })
	r.MustRegister(stages.ListToProjectionsID, func() plugin.Stage { return stages.NewListToProjections() })
	r.MustRegister(stages.RecordID, func() plugin.Stage { return rec })
	return r
}

func parse(t *testing.T, src string) *plugin.Process {
	t.Helper()
	p, err := plugin.ParseProcess([]byte(src))
	if err != nil {
		t.Fatalf("ParseProcess() error = %v", err)
	}
	return p
}

func newDriver(t *testing.T, cfg Config, r *plugin.Registry, s storage.Storage) *Driver {
	t.Helper()
	d, err := New(cfg, r, s, WithLogger(logger.NewNop()), WithRunID("run-1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func readGroup(t *testing.T, s storage.Storage, filename string) backing.Group {
	t.Helper()
	groups, err := backing.Open(context.Background(), s, filename)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", filename, err)
	}
	if len(groups) != 1 {
		t.Fatalf("Open(%s) returned %d groups, want 1", filename, len(groups))
	}
	return groups[0]
}

func allEqual(values []float64, want float64) bool {
	return !slices.ContainsFunc(values, func(v float64) bool { return v != want })
}

func TestRunSubtractThenScale(t *testing.T) {
	configs := map[string]Config{
		"serial":   {MaxParallel: 1, MaxFrames: 1, OutPath: "out"},
		"parallel": {MaxParallel: 4, MaxFrames: 8, OutPath: "out"},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			rec := stages.NewRecord()
			store := memory.New()
			d := newDriver(t, cfg, testRegistry(t, rec), store)

			if err := d.Run(context.Background(), parse(t, darkProcess)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			subtracted := readGroup(t, store, "out/demo00_tomoflow.filters.subtract_tomo.tfb")
			if subtracted.Name != "0-subtract" {
				t.Errorf("group = %q, want 0-subtract", subtracted.Name)
			}
			if !slices.Equal(subtracted.Shape, []int{2, 3, 4}) {
				t.Errorf("shape = %v, want [2 3 4]", subtracted.Shape)
			}
			if !allEqual(subtracted.Data.Data(), -1000) {
				t.Errorf("subtracted values = %v, want all -1000", subtracted.Data.Data())
			}

			scaled := readGroup(t, store, "out/demo01_tomoflow.filters.scale_tomo.tfb")
			if scaled.Name != "1-scale" {
				t.Errorf("group = %q, want 1-scale", scaled.Name)
			}
			if !allEqual(scaled.Data.Data(), -2000) {
				t.Errorf("scaled values = %v, want all -2000", scaled.Data.Data())
			}
			if _, ok := scaled.Meta.Patterns["SINOGRAM"]; !ok {
				t.Errorf("scaled meta patterns = %v, want SINOGRAM", scaled.Meta.Patterns)
			}

			if store.Len() != 2 {
				t.Errorf("stored objects = %d, want 2", store.Len())
			}
			if rec.Setups() != 2 {
				t.Errorf("sink setups = %d, want 2", rec.Setups())
			}
			files := rec.Files()
			if files["tomo"].Group != "1-scale" {
				t.Errorf("recorded tomo = %+v, want group 1-scale", files["tomo"])
			}
		})
	}
}

func TestRunHistoryAndStatus(t *testing.T) {
	d := newDriver(t, Config{OutPath: "out"}, testRegistry(t, stages.NewRecord()), memory.New())
	if err := d.Run(context.Background(), parse(t, darkProcess)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	h := d.History()
	if len(h) != 2 {
		t.Fatalf("history has %d snapshots, want 2", len(h))
	}
	if h[0].StageID != stages.SubtractID || h[0].StageIndex != 1 {
		t.Errorf("first snapshot = %s at %d", h[0].StageID, h[0].StageIndex)
	}
	if !slices.Equal(h[0].Resolved.In, []string{"tomo", "dark"}) || !slices.Equal(h[0].Resolved.Out, []string{"tomo"}) {
		t.Errorf("first resolved = %+v", h[0].Resolved)
	}
	if len(h[0].Outputs) != 1 || h[0].Outputs[0].File.Group != "0-subtract" {
		t.Errorf("first outputs = %+v", h[0].Outputs)
	}
	if len(h[1].Outputs) != 1 || h[1].Outputs[0].File.Group != "1-scale" {
		t.Errorf("second outputs = %+v", h[1].Outputs)
	}

	s := d.Status()
	if s.RunID != "run-1" || s.Process != "demo" {
		t.Errorf("status identity = %s/%s", s.RunID, s.Process)
	}
	if s.State != StateDone || s.Stages != 2 || s.Executed != 2 {
		t.Errorf("status = %s, %d/%d stages", s.State, s.Executed, s.Stages)
	}
	if s.FinishedAt == nil || s.Error != "" {
		t.Errorf("status finish = %v, error = %q", s.FinishedAt, s.Error)
	}

	info, err := d.Dataset("tomo")
	if err != nil {
		t.Fatalf("Dataset(tomo) error = %v", err)
	}
	if info.Coverage != 1 {
		t.Errorf("tomo coverage = %v, want 1", info.Coverage)
	}
	if info.File.Group != "1-scale" {
		t.Errorf("tomo file = %+v", info.File)
	}
	if _, err := d.Dataset("missing"); !errors.IsNotFound(err) {
		t.Errorf("Dataset(missing) error = %v, want not found", err)
	}
	if got := len(d.Datasets()); got != 2 {
		t.Errorf("Datasets() = %d, want 2", got)
	}
}

func TestRunListToProjections(t *testing.T) {
	rec := stages.NewRecord()
	store := memory.New()
	d := newDriver(t, Config{OutPath: "out"}, testRegistry(t, rec), store)
	if err := d.Run(context.Background(), parse(t, gridProcess)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	g := readGroup(t, store, "out/grid00_tomoflow.filters.list_to_projections_tomo.tfb")
	if !slices.Equal(g.Shape, []int{2, 2, 2}) {
		t.Fatalf("shape = %v, want [2 2 2]", g.Shape)
	}
	want := []float64{0, 2, 1, 3, 4, 6, 5, 7}
	if !slices.Equal(g.Data.Data(), want) {
		t.Errorf("values = %v, want %v", g.Data.Data(), want)
	}
	if !slices.Equal(g.Meta.Labels[1:], []string{"x.microns", "y.microns"}) {
		t.Errorf("labels = %v", g.Meta.Labels)
	}
	proj := g.Meta.Patterns["PROJECTION"]
	if !slices.Equal(proj.Core, []int{1, 2}) || !slices.Equal(proj.Slice, []int{0}) {
		t.Errorf("PROJECTION = %+v, want core [1 2] slice [0]", proj)
	}
}

func TestRunLocalStorage(t *testing.T) {
	dir := t.TempDir()
	store, err := local.NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	d := newDriver(t, Config{OutPath: "out", Basename: "scan"}, testRegistry(t, stages.NewRecord()), store)
	if err := d.Run(context.Background(), parse(t, darkProcess)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, name := range []string{
		"scan00_tomoflow.filters.subtract_tomo.tfb",
		"scan01_tomoflow.filters.scale_tomo.tfb",
	} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Errorf("stat %s: %v", name, err)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d := newDriver(t, Config{}, testRegistry(t, stages.NewRecord()), memory.New())
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close() before Load error = %v", err)
	}

	d = newDriver(t, Config{OutPath: "out"}, testRegistry(t, stages.NewRecord()), memory.New())
	if err := d.Run(context.Background(), parse(t, darkProcess)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for range 2 {
		if err := d.Close(context.Background()); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		process string
		code    errors.ErrorCode
	}{
		{
			name: "first stage is not a source",
			process: `
stages:
  - id: tomoflow.filters.scale
  - id: tomoflow.savers.record
`,
			code: errors.ErrCodeStageLoad,
		},
		{
			name: "last stage is not a sink",
			process: `
stages:
  - id: tomoflow.source.synthetic
    params: {shape: [4]}
  - id: tomoflow.filters.scale
`,
			code: errors.ErrCodeStageLoad,
		},
		{
			name: "unknown stage",
			process: `
stages:
  - id: tomoflow.source.synthetic
    params: {shape: [4]}
  - id: tomoflow.filters.missing
  - id: tomoflow.savers.record
`,
			code: errors.ErrCodeStageLoad,
		},
		{
			name: "too few inputs",
			process: `
stages:
  - id: tomoflow.source.synthetic
    params: {shape: [2, 4]}
  - id: tomoflow.filters.subtract
    in_datasets: [tomo]
  - id: tomoflow.savers.record
`,
			code: errors.ErrCodeChainBroken,
		},
		{
			name: "unknown parameter",
			process: `
stages:
  - id: tomoflow.source.synthetic
    params: {shape: [2, 4]}
  - id: tomoflow.filters.scale
    params: {factr: 2}
  - id: tomoflow.savers.record
`,
			code: errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDriver(t, Config{OutPath: "out"}, testRegistry(t, stages.NewRecord()), memory.New())
			err := d.Run(context.Background(), parse(t, tt.process))
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Run() error = %v, want code %s", err, tt.code)
			}
			s := d.Status()
			if s.State != StateFailed || s.Error == "" {
				t.Errorf("status = %s (%q), want failed", s.State, s.Error)
			}
		})
	}
}

func TestLifecycleOrder(t *testing.T) {
	d := newDriver(t, Config{OutPath: "out"}, testRegistry(t, stages.NewRecord()), memory.New())
	if err := d.Execute(context.Background()); err == nil {
		t.Error("Execute() before Load succeeded")
	}
	p := parse(t, darkProcess)
	if err := d.Load(context.Background(), p); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := d.Load(context.Background(), p); err == nil {
		t.Error("second Load() succeeded")
	}
	if s := d.Status(); s.State != StateLoaded {
		t.Errorf("state = %s, want loaded", s.State)
	}
	if err := d.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{MaxParallel: -1}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a negative max_parallel")
	}

	cfg = Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() defaults error = %v", err)
	}
	if cfg.OutPath != "." || cfg.MaxFrames != DefaultMaxFrames {
		t.Errorf("defaults = %+v", cfg)
	}
}
