package status

import (
	"fmt"

	"github.com/kbukum/tomoflow/validation"
)

// Config holds status server configuration.
type Config struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	// Port 0 picks a free port; Addr reports it once started.
	Port int `yaml:"port" mapstructure:"port"`

	ReadTimeout  int `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

func (c *Config) Validate() error {
	v := validation.New().
		Range("status.port", c.Port, 0, 65535).
		Min("status.read_timeout", c.ReadTimeout, 0).
		Min("status.write_timeout", c.WriteTimeout, 0).
		Min("status.idle_timeout", c.IdleTimeout, 0)
	if err := v.Validate(); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return nil
}
