package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop. When disabled it only creates Metrics on the global
// (no-op) meter.
type Component struct {
	cfg     Config
	log     *logger.Logger
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("observability")}
}

// Metrics returns the pipeline instruments, nil before Start.
func (c *Component) Metrics() *Metrics { return c.metrics }

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Enabled {
		tp, err := InitTracer(ctx, c.cfg)
		if err != nil {
			return err
		}
		c.tp = tp
		mp, err := InitMeter(ctx, c.cfg)
		if err != nil {
			return errors.Join(err, tp.Shutdown(ctx))
		}
		c.mp = mp
		c.log.Info("telemetry export enabled", logger.Fields("endpoint", c.cfg.Endpoint))
	}
	m, err := NewMetrics(Meter())
	if err != nil {
		return err
	}
	c.metrics = m
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
		c.mp = nil
	}
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
		c.tp = nil
	}
	return errors.Join(errs...)
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.metrics == nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s", c.cfg.Endpoint)
	}
	return component.Description{Name: "Telemetry", Type: "observability", Details: details}
}
