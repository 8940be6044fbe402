package driver

import (
	"fmt"
	"runtime"

	"github.com/kbukum/tomoflow/naming"
	"github.com/kbukum/tomoflow/resilience"
	"github.com/kbukum/tomoflow/validation"
)

// DefaultMaxFrames is how many slice indices a frame covers when neither
// the stage nor the configuration says otherwise.
const DefaultMaxFrames = 8

// Config controls how a process is executed and where outputs go.
type Config struct {
	// MaxParallel is the number of frames processed concurrently per stage.
	MaxParallel int `mapstructure:"max_parallel" json:"max_parallel"`
	// MaxFrames caps the indices of the first slice direction per frame.
	MaxFrames int `mapstructure:"max_frames" json:"max_frames"`
	// OutPath is the directory backing files are written under.
	OutPath string `mapstructure:"out_path" json:"out_path"`
	// Basename prefixes every backing filename. Defaults to the process name.
	Basename string `mapstructure:"basename" json:"basename"`
	Ext      string `mapstructure:"ext" json:"ext"`

	// Retry controls how uploads of finished backing files are retried.
	Retry resilience.RetryConfig `mapstructure:"retry" json:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.MaxParallel == 0 {
		c.MaxParallel = runtime.NumCPU()
	}
	if c.MaxFrames == 0 {
		c.MaxFrames = DefaultMaxFrames
	}
	if c.OutPath == "" {
		c.OutPath = "."
	}
	if c.Ext == "" {
		c.Ext = naming.DefaultExt
	}
	c.Retry.ApplyDefaults()
}

func (c *Config) Validate() error {
	v := validation.New().
		Min("driver.max_parallel", c.MaxParallel, 1).
		Min("driver.max_frames", c.MaxFrames, 1).
		Required("driver.out_path", c.OutPath).
		Required("driver.ext", c.Ext)
	if err := v.Validate(); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("driver.retry: %w", err)
	}
	return nil
}
