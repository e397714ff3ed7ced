// Package config defines ferry's typed configuration and loads it from an
// optional YAML file with environment variable overrides. Grounded on the
// teacher's internal/config/types.go + loader.go, trimmed to the tunables
// spec.md §6 enumerates.
package config

import "time"

// Config is ferry's complete runtime configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Request     RequestConfig     `yaml:"request"`
	HealthCheck HealthCheckConfig `yaml:"health_check"`
	Nodes       NodesConfig       `yaml:"nodes"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// ServerConfig is where ferry's HTTP front-end listens.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// RequestConfig tunes the per-request forwarding pipeline.
type RequestConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

// HealthCheckConfig tunes the background health-probing loop.
type HealthCheckConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	Path                string        `yaml:"path"`
	DegradedThresholdMs int           `yaml:"degraded_threshold_ms"`
}

// NodesConfig lists the static backend nodes to bootstrap the registry
// with. Overridden wholesale by the BACKEND_NODES environment variable
// when it is set and non-empty.
type NodesConfig struct {
	Static []StaticNode `yaml:"static"`
}

// StaticNode is one statically configured backend node.
type StaticNode struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig controls Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	JaegerEndpoint string  `yaml:"jaeger_endpoint"`
	SampleRate     float64 `yaml:"sample_rate"`
}

// Default returns ferry's out-of-the-box configuration, mirroring the
// teacher's Load()'s hard-coded defaults block.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		Request: RequestConfig{
			Timeout:        2 * time.Second,
			ConnectTimeout: 1 * time.Second,
			MaxAttempts:    3,
		},
		HealthCheck: HealthCheckConfig{
			Enabled:             true,
			Interval:            10 * time.Second,
			Timeout:             500 * time.Millisecond,
			Path:                "/health",
			DegradedThresholdMs: 50,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{Enabled: false, SampleRate: 1.0},
	}
}
