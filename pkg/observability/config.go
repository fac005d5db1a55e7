package observability

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Config holds the OpenTelemetry export settings
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // development, staging, production
	TracingEnabled bool
	MetricsEnabled bool
	OTLPEndpoint   string // host:port of an OTLP/HTTP collector
	OTLPHeaders    map[string]string
	SamplingRate   float64 // 0.0 - 1.0

	// Advanced settings
	TraceBatchTimeout time.Duration
	MetricInterval    time.Duration
	ResourceAttrs     []attribute.KeyValue
}

// DefaultConfig returns sensible defaults. Export is off until enabled.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4318",
		SamplingRate:      1.0,
		TraceBatchTimeout: 5 * time.Second,
		MetricInterval:    15 * time.Second,
	}
}

// Enabled reports whether anything is exported.
func (c Config) Enabled() bool {
	return c.TracingEnabled || c.MetricsEnabled
}
