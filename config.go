package homeservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/homeservice/service/messaging/memory"
	"github.com/viant/homeservice/service/processor"
	"github.com/viant/homeservice/service/servicerequest"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverFs       = "fs"
)

// Config is a serialisable representation of the service configuration. The
// zero-value of every nested field inherits its default from DefaultConfig.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Processor  processor.Config `json:"processor" yaml:"processor"`
	Events     memory.Config    `json:"events" yaml:"events"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// HTTPConfig configures the API listener
type HTTPConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// StoreConfig selects the request store backend
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// CheckpointConfig selects the execution checkpoint backend
type CheckpointConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
}

// EngineConfig points at a remote engine; an empty URL runs the engine in process.
type EngineConfig struct {
	URL        string        `json:"url,omitempty" yaml:"url,omitempty"`
	WorkflowID string        `json:"workflowId" yaml:"workflowId"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// TracingConfig configures the OpenTelemetry exporter
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a Config populated with default values. Callers may
// modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		HTTP:       HTTPConfig{Addr: ":3141", ShutdownTimeout: 10 * time.Second},
		Store:      StoreConfig{Driver: DriverMemory},
		Checkpoint: CheckpointConfig{Driver: DriverMemory},
		Engine:     EngineConfig{WorkflowID: servicerequest.WorkflowID, Timeout: 10 * time.Second},
		Processor:  processor.DefaultConfig(),
		Events:     memory.DefaultConfig(),
		Tracing:    TracingConfig{ServiceName: "homeservice", ServiceVersion: "dev"},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for the %s driver", DriverPostgres))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store.driver %q", c.Store.Driver))
	}
	switch c.Checkpoint.Driver {
	case DriverMemory:
	case DriverFs:
		if c.Checkpoint.URL == "" {
			errs = append(errs, fmt.Errorf("checkpoint.url is required for the %s driver", DriverFs))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported checkpoint.driver %q", c.Checkpoint.Driver))
	}
	if c.Engine.WorkflowID == "" {
		errs = append(errs, fmt.Errorf("engine.workflowId is required"))
	}
	if c.Processor.MaxStepRetries < 0 {
		errs = append(errs, fmt.Errorf("processor.retries must be >= 0"))
	}
	if c.Events.QueueBuffer <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML document at URL over the defaults; any afs supported scheme works.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if URL == "" {
		return ret, nil
	}
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
