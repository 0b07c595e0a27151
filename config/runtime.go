package config

import (
	"fmt"
	"time"

	"github.com/kbukum/packetflow/validation"
)

// Queue capacity bounds shared by every link builder.
const (
	DefaultQueueCapacity = 10
	MinQueueCapacity     = 1
	MaxQueueCapacity     = 1000
)

// RuntimeConfig is the full configuration of the packetflow service.
type RuntimeConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Runtime       Runtime   `yaml:"runtime" mapstructure:"runtime"`
	Telemetry     Telemetry `yaml:"telemetry" mapstructure:"telemetry"`
	Status        Status    `yaml:"status" mapstructure:"status"`
	Graph         Graph     `yaml:"graph" mapstructure:"graph"`
}

// Runtime holds the default channel capacities applied to builders that do
// not set their own.
type Runtime struct {
	QueueCapacity      int `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"min=1,max=1000"`
	JoinQueueCapacity  int `yaml:"join_queue_capacity" mapstructure:"join_queue_capacity" validate:"min=1,max=1000"`
	CloneQueueCapacity int `yaml:"clone_queue_capacity" mapstructure:"clone_queue_capacity" validate:"min=1,max=1000"`
}

// Telemetry configures the OTLP metric and trace exporters.
type Telemetry struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Status configures the HTTP health and stats endpoint.
type Status struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr" validate:"required_if=Enabled true"`
}

// Graph points at the YAML pipeline definition to run.
type Graph struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ApplyDefaults fills unset fields.
func (c *RuntimeConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Runtime.QueueCapacity == 0 {
		c.Runtime.QueueCapacity = DefaultQueueCapacity
	}
	if c.Runtime.JoinQueueCapacity == 0 {
		c.Runtime.JoinQueueCapacity = DefaultQueueCapacity
	}
	if c.Runtime.CloneQueueCapacity == 0 {
		c.Runtime.CloneQueueCapacity = DefaultQueueCapacity
	}
	if c.Telemetry.Endpoint == "" && c.Telemetry.Enabled {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = 15 * time.Second
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Status.Addr == "" {
		c.Status.Addr = ":8080"
	}
}

// Validate checks the base fields and then the struct tags.
func (c *RuntimeConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Struct("config", c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads the service configuration, applies defaults and validates it.
func Load(serviceName string, opts ...LoaderOption) (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
