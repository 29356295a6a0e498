// Package config loads tagdeck's configuration from file, environment and flags
// through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/tagdeck/internal/instrumentation"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// EnvPrefix is prepended to every environment variable, with dots in keys
	// replaced by underscores: store.dsn -> TAGDECK_STORE_DSN.
	EnvPrefix = "TAGDECK"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Google    GoogleConfig    `mapstructure:"google"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Telemetry instrumentation.Config `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is the sustained per-user request rate on the HTTP API, in req/s.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
	// EnableMCP mounts the MCP streamable HTTP endpoint at /mcp.
	EnableMCP bool `mapstructure:"enable_mcp"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type SessionConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
	// RedisURL switches session change events to Redis pub/sub.
	RedisURL string `mapstructure:"redis_url"`
	// ViewTTL evicts idle view sessions.
	ViewTTL time.Duration `mapstructure:"view_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type FilterConfig struct {
	// ServerSideAll evaluates ALL-mode tag filters with a grouped store query
	// instead of grouping association rows in process.
	ServerSideAll bool `mapstructure:"server_side_all"`
}

type DashboardConfig struct {
	PageSize         int64 `mapstructure:"page_size"`
	FetchConcurrency int   `mapstructure:"fetch_concurrency"`
	ActivityLimit    int   `mapstructure:"activity_limit"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.enable_mcp", true)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "tagdeck.db")
	v.SetDefault("session.issuer", "tagdeck-auth")
	v.SetDefault("session.audience", "authenticated")
	v.SetDefault("session.view_ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("filter.server_side_all", false)
	v.SetDefault("dashboard.page_size", 20)
	v.SetDefault("dashboard.fetch_concurrency", 8)
	v.SetDefault("dashboard.activity_limit", 50)

	telemetry := instrumentation.DefaultConfig()
	v.SetDefault("telemetry.service_name", telemetry.ServiceName)
	v.SetDefault("telemetry.enabled", telemetry.Enabled)
	v.SetDefault("telemetry.metrics_exporter", telemetry.MetricsExporter)
	v.SetDefault("telemetry.tracing_exporter", telemetry.TracingExporter)
	v.SetDefault("telemetry.sample_rate", telemetry.SampleRate)
	v.SetDefault("telemetry.detailed_labels", telemetry.DetailedLabels)
	v.SetDefault("telemetry.audit.enabled", telemetry.Audit.Enabled)
	v.SetDefault("telemetry.audit.include_pii", telemetry.Audit.IncludePII)
}

// otelEnv maps telemetry keys to the standard OpenTelemetry variables, which
// are honored after the TAGDECK_ ones.
var otelEnv = map[string]string{
	"telemetry.service_name":  "OTEL_SERVICE_NAME",
	"telemetry.instance_id":   "OTEL_SERVICE_INSTANCE_ID",
	"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	"telemetry.otlp_insecure": "OTEL_EXPORTER_OTLP_INSECURE",
	"telemetry.sample_rate":   "OTEL_TRACES_SAMPLER_ARG",
}

func bindOTelEnv(v *viper.Viper) {
	for key, name := range otelEnv {
		own := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, own, name)
	}
}

// NewViper returns a viper instance wired for tagdeck: defaults, env prefix with
// dotted-key replacement, and the config search path.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("tagdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tagdeck")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindOTelEnv(v)
	return v
}

// Load reads the optional config file and decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid store.driver %q (must be %q or %q)", c.Store.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if c.Dashboard.PageSize <= 0 || c.Dashboard.PageSize > 500 {
		return fmt.Errorf("dashboard.page_size must be between 1 and 500, got %d", c.Dashboard.PageSize)
	}
	if c.Dashboard.FetchConcurrency <= 0 {
		return fmt.Errorf("dashboard.fetch_concurrency must be positive, got %d", c.Dashboard.FetchConcurrency)
	}
	if c.Dashboard.ActivityLimit <= 0 {
		return fmt.Errorf("dashboard.activity_limit must be positive, got %d", c.Dashboard.ActivityLimit)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}
	return c.Telemetry.Validate()
}

// ValidateServe adds the checks only the serve command needs.
func (c *Config) ValidateServe() error {
	if c.Session.JWTSecret == "" {
		return fmt.Errorf("session.jwt_secret is required to verify bearer tokens")
	}
	if len(c.Session.JWTSecret) < 32 {
		return fmt.Errorf("session.jwt_secret must be at least 32 bytes")
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return fmt.Errorf("google.client_id and google.client_secret are required")
	}
	return nil
}
