package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return exporter
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("tomoflow")
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("Interval = %v", cfg.Interval)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips checks", Config{SampleRate: 7}, false},
		{"enabled defaults", func() Config { c := DefaultConfig("x"); c.Enabled = true; return c }(), false},
		{"bad sample rate", Config{Enabled: true, ServiceName: "x", Endpoint: "h:1", SampleRate: 2, Interval: time.Second}, true},
		{"missing endpoint", Config{Enabled: true, ServiceName: "x", Interval: time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Endpoint: "collector:4318"}
	cfg.ApplyDefaults()
	if cfg.ServiceName != "tomoflow" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Endpoint != "collector:4318" {
		t.Errorf("Endpoint overwritten: %q", cfg.Endpoint)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("sampler(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestStartStageRecordsSpan(t *testing.T) {
	exporter := installRecorder(t)

	ctx, op := StartStage(context.Background(), nil, "scale", 1, PhaseExecute)
	op.End(ctx, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name != SpanExecute {
		t.Errorf("span name = %q", s.Name)
	}
	if s.Status.Code != codes.Ok {
		t.Errorf("status = %v", s.Status.Code)
	}
	found := false
	for _, kv := range s.Attributes {
		if string(kv.Key) == AttrStage && kv.Value.AsString() == "scale" {
			found = true
		}
	}
	if !found {
		t.Errorf("attributes %v missing stage", s.Attributes)
	}
}

func TestEndSpanWithError(t *testing.T) {
	exporter := installRecorder(t)

	_, span := StartSpan(context.Background(), SpanResolve)
	EndSpan(span, errors.ChainBroken("s1", "in", 2, 1))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
	var code string
	for _, kv := range spans[0].Attributes {
		if string(kv.Key) == AttrErrorCode {
			code = kv.Value.AsString()
		}
	}
	if code != string(errors.ErrCodeChainBroken) {
		t.Errorf("error.code = %q", code)
	}
}

func TestMetricsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordFrames(ctx, "scale", "tomo", 3)
	m.RecordFrames(ctx, "scale", "tomo", 2)
	m.RecordFrameUnavailable(ctx, "scale", "tomo")
	m.RecordStage(ctx, "scale", PhaseExecute, time.Millisecond, errors.FrameUnavailable("tomo", 4))

	if got := sumOf(t, reader, MetricFramesWritten); got != 5 {
		t.Errorf("%s = %d, want 5", MetricFramesWritten, got)
	}
	if got := sumOf(t, reader, MetricFramesUnavailable); got != 1 {
		t.Errorf("%s = %d, want 1", MetricFramesUnavailable, got)
	}
	if got := sumOf(t, reader, MetricStageErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricStageErrors, got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordFrames(ctx, "s", "d", 1)
	m.RecordFrameUnavailable(ctx, "s", "d")
	m.RecordStage(ctx, "s", PhaseResolve, time.Second, nil)
}

func TestNewMetricsNoopMeter(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordStage(context.Background(), "s", PhaseResolve, time.Second, nil)
}

func TestStageOperationDuration(t *testing.T) {
	_, op := StartStage(context.Background(), nil, "s", 0, PhaseResolve)
	op.StartTime = time.Now().Add(-50 * time.Millisecond)
	if d := op.Duration(); d < 45*time.Millisecond {
		t.Errorf("Duration = %v", d)
	}
}

func TestDisabledComponent(t *testing.T) {
	c := NewComponent(Config{}, logger.NewNop())
	ctx := context.Background()
	if h := c.Health(ctx); h.Status != component.StatusDegraded {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Metrics() == nil {
		t.Fatal("expected metrics after start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health = %s", h.Status)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("details = %q", d.Details)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
