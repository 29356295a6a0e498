package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindOTelEnv(v)
	v.AddConfigPath(t.TempDir())
	v.SetConfigName("tagdeck")
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, int64(20), cfg.Dashboard.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.ViewTTL)
	assert.False(t, cfg.Filter.ServerSideAll)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `
store:
  driver: postgres
  dsn: postgres://localhost/tagdeck
filter:
  server_side_all: true
session:
  view_ttl: 5m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tagdeck.yaml"), []byte(content), 0o600))

	v := newTestViper(t)
	v.AddConfigPath(dir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/tagdeck", cfg.Store.DSN)
	assert.True(t, cfg.Filter.ServerSideAll)
	assert.Equal(t, 5*time.Minute, cfg.Session.ViewTTL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TAGDECK_DASHBOARD_PAGE_SIZE", "50")
	t.Setenv("TAGDECK_LOG_LEVEL", "debug")

	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.Dashboard.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Telemetry(t *testing.T) {
	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricsExporter)
	assert.True(t, cfg.Telemetry.Audit.Enabled)

	t.Setenv("TAGDECK_TELEMETRY_TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("TAGDECK_TELEMETRY_AUDIT_INCLUDE_PII", "true")

	cfg, err = Load(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, "otlp", cfg.Telemetry.TracingExporter)
	assert.Equal(t, "collector:4318", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.Audit.IncludePII)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	_, err = Load(newTestViper(t))
	assert.ErrorContains(t, err, "otlp_endpoint")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{RateLimit: 1, RateBurst: 1},
			Store:     StoreConfig{Driver: DriverSQLite, DSN: "x.db"},
			Dashboard: DashboardConfig{PageSize: 20, FetchConcurrency: 4, ActivityLimit: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "invalid store.driver"},
		{"missing dsn", func(c *Config) { c.Store.DSN = "" }, "store.dsn is required"},
		{"page size zero", func(c *Config) { c.Dashboard.PageSize = 0 }, "page_size"},
		{"page size too large", func(c *Config) { c.Dashboard.PageSize = 501 }, "page_size"},
		{"no concurrency", func(c *Config) { c.Dashboard.FetchConcurrency = 0 }, "fetch_concurrency"},
		{"no activity limit", func(c *Config) { c.Dashboard.ActivityLimit = -1 }, "activity_limit"},
		{"no rate limit", func(c *Config) { c.Server.RateLimit = 0 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := Config{
		Session: SessionConfig{JWTSecret: strings.Repeat("k", 32)},
		Google:  GoogleConfig{ClientID: "id", ClientSecret: "secret"},
	}
	assert.NoError(t, cfg.ValidateServe())

	cfg.Session.JWTSecret = "short"
	assert.Error(t, cfg.ValidateServe())

	cfg.Session.JWTSecret = ""
	assert.Error(t, cfg.ValidateServe())

	cfg.Session.JWTSecret = strings.Repeat("k", 32)
	cfg.Google.ClientSecret = ""
	assert.Error(t, cfg.ValidateServe())
}
