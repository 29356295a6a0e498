package instrumentation

import (
	"fmt"
	"time"
)

// Config is the "telemetry" section of the tagdeck configuration.
type Config struct {
	// ServiceName is reported as service.name on every metric and span.
	ServiceName string `mapstructure:"service_name"`

	// ServiceVersion is set from the build, not from configuration.
	ServiceVersion string `mapstructure:"-"`

	// InstanceID defaults to the hostname, which is the pod name in Kubernetes.
	InstanceID string `mapstructure:"instance_id"`

	// Enabled turns metrics and tracing on. When off, all recorders are no-ops
	// and no metrics listener is started.
	Enabled bool `mapstructure:"enabled"`

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string `mapstructure:"metrics_exporter"`

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string `mapstructure:"tracing_exporter"`

	// OTLPEndpoint is host:port of the collector, without a scheme.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// OTLPInsecure sends OTLP over plain HTTP. Local development only.
	OTLPInsecure bool `mapstructure:"otlp_insecure"`

	// SampleRate is the parent-based trace sampling ratio.
	SampleRate float64 `mapstructure:"sample_rate"`

	// DetailedLabels adds per-user hashes to tool metrics.
	DetailedLabels bool `mapstructure:"detailed_labels"`

	Audit AuditConfig `mapstructure:"audit"`
}

// AuditConfig controls the tool audit log.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// IncludePII logs full email addresses instead of the domain and hash.
	IncludePII bool `mapstructure:"include_pii"`
}

// DefaultConfig returns the telemetry defaults: Prometheus metrics on, tracing
// off, audit log on without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:     "tagdeck",
		ServiceVersion:  "unknown",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		SampleRate:      0.1,
		Audit:           AuditConfig{Enabled: true},
	}
}

// Validate checks exporter names, the sampling ratio and that OTLP exporters
// have an endpoint.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %g", c.SampleRate)
	}

	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid telemetry.metrics_exporter %q (must be prometheus, otlp or stdout)", c.MetricsExporter)
	}
	switch c.TracingExporter {
	case ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid telemetry.tracing_exporter %q (must be otlp, stdout or none)", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("telemetry.otlp_endpoint is required for the otlp exporter")
	}
	return nil
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	AuthResultSuccess = "success"
	AuthResultFailure = "failure"
	AuthResultExpired = "expired"

	// Services a call is attributed to.
	ServiceGmail    = "gmail"
	ServiceCalendar = "calendar"
	ServiceStore    = "store"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// exportInterval is how often periodic readers push metrics.
	exportInterval = 10 * time.Second
)
