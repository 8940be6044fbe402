package observability

import (
	"fmt"
	"time"

	"github.com/kbukum/tomoflow/validation"
)

// Config configures tracing and metrics export. Both are off unless
// Enabled is set; the global otel providers are then no-ops.
type Config struct {
	Enabled        bool   `mapstructure:"enabled" json:"enabled"`
	ServiceName    string `mapstructure:"service_name" json:"service_name"`
	ServiceVersion string `mapstructure:"service_version" json:"service_version"`
	Environment    string `mapstructure:"environment" json:"environment"`

	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	Insecure bool   `mapstructure:"insecure" json:"insecure"`

	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate"`

	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval" json:"interval"`
}

// DefaultConfig returns development defaults for serviceName.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
		Interval:       15 * time.Second,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig("tomoflow")
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = d.ServiceVersion
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Interval == 0 {
		c.Interval = d.Interval
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		Required("observability.service_name", c.ServiceName).
		Required("observability.endpoint", c.Endpoint).
		Custom(c.SampleRate >= 0 && c.SampleRate <= 1, "observability.sample_rate", "must be between 0 and 1").
		Custom(c.Interval > 0, "observability.interval", "must be positive")
	if err := v.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
