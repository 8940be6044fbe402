package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
)

// Metric names.
const (
	MetricFramesWritten     = "tomoflow.frames.written"
	MetricFramesUnavailable = "tomoflow.frames.unavailable"
	MetricStageDuration     = "tomoflow.stage.duration"
	MetricStageErrors       = "tomoflow.stage.errors"
)

// InitMeter installs a periodic OTLP/HTTP meter provider as the global
// provider. The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the tomoflow meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(tracerName)
}

// Metrics holds the pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	framesWritten     metric.Int64Counter
	framesUnavailable metric.Int64Counter
	stageDuration     metric.Float64Histogram
	stageErrors       metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	framesWritten, err := meter.Int64Counter(MetricFramesWritten,
		metric.WithDescription("Frames written to output datasets"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFramesWritten, err)
	}

	framesUnavailable, err := meter.Int64Counter(MetricFramesUnavailable,
		metric.WithDescription("Input frames read before they were written"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFramesUnavailable, err)
	}

	stageDuration, err := meter.Float64Histogram(MetricStageDuration,
		metric.WithDescription("Duration of stage resolution and execution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricStageDuration, err)
	}

	stageErrors, err := meter.Int64Counter(MetricStageErrors,
		metric.WithDescription("Stage failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricStageErrors, err)
	}

	return &Metrics{
		framesWritten:     framesWritten,
		framesUnavailable: framesUnavailable,
		stageDuration:     stageDuration,
		stageErrors:       stageErrors,
	}, nil
}

// RecordFrames counts n frames written to dataset by stage.
func (m *Metrics) RecordFrames(ctx context.Context, stageID, dataset string, n int) {
	if m == nil {
		return
	}
	m.framesWritten.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(AttrStage, stageID),
		attribute.String(AttrDataset, dataset),
	))
}

// RecordFrameUnavailable counts a read of a frame that was not yet written.
func (m *Metrics) RecordFrameUnavailable(ctx context.Context, stageID, dataset string) {
	if m == nil {
		return
	}
	m.framesUnavailable.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stageID),
		attribute.String(AttrDataset, dataset),
	))
}

// RecordStage records how long a stage phase ("resolve" or "execute")
// took and counts failures by error code.
func (m *Metrics) RecordStage(ctx context.Context, stageID, phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.stageErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrStage, stageID),
			attribute.String(AttrErrorCode, errorCode(err)),
		))
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrStage, stageID),
		attribute.String("phase", phase),
		attribute.String(AttrStatus, status),
	))
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "UNKNOWN"
}
