package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(*Config)
		wantEnabled    bool
		wantPrometheus bool
		wantErr        string
	}{
		{
			name:   "disabled",
			modify: func(c *Config) { c.Enabled = false },
		},
		{
			name:           "prometheus",
			modify:         func(*Config) {},
			wantEnabled:    true,
			wantPrometheus: true,
		},
		{
			name:        "stdout",
			modify:      func(c *Config) { c.MetricsExporter = ExporterStdout; c.TracingExporter = ExporterStdout },
			wantEnabled: true,
		},
		{
			name:    "invalid metrics exporter",
			modify:  func(c *Config) { c.MetricsExporter = "invalid" },
			wantErr: "metrics_exporter",
		},
		{
			name:    "invalid tracing exporter",
			modify:  func(c *Config) { c.TracingExporter = "invalid" },
			wantErr: "tracing_exporter",
		},
		{
			name:    "otlp tracing without endpoint",
			modify:  func(c *Config) { c.TracingExporter = ExporterOTLP },
			wantErr: "otlp_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			cfg := DefaultConfig()
			cfg.ServiceVersion = "test"
			tt.modify(&cfg)

			provider, err := NewProvider(ctx, cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantEnabled, provider.Enabled())
			assert.Equal(t, tt.wantPrometheus, provider.ServesPrometheus())
			assert.NotNil(t, provider.Metrics(), "metrics are usable even when disabled")
			assert.NoError(t, provider.Shutdown(ctx))
		})
	}
}
