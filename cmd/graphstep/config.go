package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/kbukum/graphstep/config"
	"github.com/kbukum/graphstep/logger"
	"github.com/kbukum/graphstep/observability"
	"github.com/kbukum/graphstep/version"
)

const serviceName = "graphstep"

// Config is the graphstep binary configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Engine               config.EngineConfig `yaml:"engine" mapstructure:"engine"`
	Telemetry            TelemetryConfig     `yaml:"telemetry" mapstructure:"telemetry"`
}

// TelemetryConfig enables OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults fills unset fields of the embedded configs.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Engine.ApplyDefaults()
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
}

// Validate checks the service and engine sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return c.Engine.Validate()
}

// telemetryEnvKeys binds the binary's own section to TELEMETRY_* variables.
var telemetryEnvKeys = []string{"telemetry.enabled", "telemetry.endpoint", "telemetry.insecure"}

// loadConfig reads path, or the first config.yml found next to the scenario
// file or in the default locations.
func loadConfig(path, scenarioFile string) (*Config, error) {
	var cfg Config
	opts := []config.LoaderOption{config.WithEnvKeys(telemetryEnvKeys...)}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if scenarioFile != "" {
		opts = append(opts, config.WithSearchDir(filepath.Dir(scenarioFile)))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setupTelemetry starts the OTLP providers when telemetry is enabled. The
// returned shutdown func is never nil.
func setupTelemetry(ctx context.Context, cfg *Config) (*observability.TraversalMetrics, func(), error) {
	noop := func() {}
	if !cfg.Telemetry.Enabled {
		return nil, noop, nil
	}
	tc := observability.DefaultTracerConfig(cfg.Name)
	tc.ServiceVersion = version.Get().Short()
	tc.Environment = cfg.Environment
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Insecure = cfg.Telemetry.Insecure
	tp, err := observability.InitTracer(ctx, &tc)
	if err != nil {
		return nil, noop, err
	}

	mc := observability.DefaultMeterConfig(cfg.Name)
	mc.ServiceVersion = tc.ServiceVersion
	mc.Environment = cfg.Environment
	mc.Endpoint = cfg.Telemetry.Endpoint
	mc.Insecure = cfg.Telemetry.Insecure
	mp, err := observability.InitMeter(ctx, &mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}

	metrics, err := observability.NewTraversalMetrics(observability.Meter(serviceName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(sctx); err != nil {
			logger.Warn("meter shutdown failed", logger.ErrorFields("telemetry_shutdown", err))
		}
		if err := tp.Shutdown(sctx); err != nil {
			logger.Warn("tracer shutdown failed", logger.ErrorFields("telemetry_shutdown", err))
		}
	}
	return metrics, shutdown, nil
}
