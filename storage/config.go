package storage

import (
	"fmt"

	"github.com/kbukum/tomoflow/validation"
)

// Provider names of the built-in backends.
const (
	ProviderLocal  = "local"
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "."
	DefaultRegion   = "us-east-1"
)

// Config selects and configures the storage backend.
type Config struct {
	// Provider selects the backend: "local", "s3" or "memory".
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Prefix is prepended to every S3 key.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	AccessKey string `mapstructure:"access_key" json:"-"`
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style S3 URLs.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	v := validation.New().OneOf("storage.provider", c.Provider, []string{ProviderLocal, ProviderS3, ProviderMemory})
	switch c.Provider {
	case ProviderLocal:
		v.Required("storage.base_path", c.BasePath)
	case ProviderS3:
		v.Required("storage.bucket", c.Bucket)
		v.Required("storage.region", c.Region)
		v.Custom((c.AccessKey == "") == (c.SecretKey == ""), "storage.secret_key",
			"access_key and secret_key must be set together")
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
