package main

import (
	"github.com/kbukum/tomoflow/config"
	"github.com/kbukum/tomoflow/driver"
	"github.com/kbukum/tomoflow/observability"
	"github.com/kbukum/tomoflow/status"
	"github.com/kbukum/tomoflow/storage"
	"github.com/kbukum/tomoflow/version"
)

// AppConfig is the tomoflow configuration file, tomoflow.yml.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Driver        driver.Config        `yaml:"driver" mapstructure:"driver"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Status        status.Config        `yaml:"status" mapstructure:"status"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *AppConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Driver.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Status.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

func (c *AppConfig) Validate() error {
	for _, validate := range []func() error{
		c.ServiceConfig.Validate,
		c.Driver.Validate,
		c.Storage.Validate,
		c.Status.Validate,
		c.Observability.Validate,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}
