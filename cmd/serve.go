package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/tagdeck/internal/api"
	"github.com/teemow/tagdeck/internal/config"
	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/google"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/resources"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
	"github.com/teemow/tagdeck/internal/tools/activity_tools"
	"github.com/teemow/tagdeck/internal/tools/calendar_tools"
	"github.com/teemow/tagdeck/internal/tools/card_tools"
	"github.com/teemow/tagdeck/internal/tools/gmail_tools"
	"github.com/teemow/tagdeck/internal/tools/google_tools"
	"github.com/teemow/tagdeck/internal/tools/tag_tools"
)

const (
	// viewSweepInterval is how often idle view sessions are evicted.
	viewSweepInterval = time.Minute
	// limiterIdle drops per-user rate limiters unused for this long.
	limiterIdle = 10 * time.Minute
)

func newServeCmd() *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP API and MCP endpoint",
		Long: `Start the tagdeck HTTP server.

The JSON API is served under /api and requires a session bearer token. When
enabled, the MCP streamable HTTP endpoint is served at /mcp with the same
authentication. Health probes are served at /healthz and /readyz, and
Prometheus metrics on a separate listener.

MCP tools start in read-only mode. Pass --yolo to register the tools that
change tags, emails, events and cards.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, map[string]string{
				"server.addr":            "addr",
				"server.metrics_addr":    "metrics-addr",
				"server.enable_mcp":      "enable-mcp",
				"store.driver":           "store-driver",
				"store.dsn":              "store-dsn",
				"session.redis_url":      "redis-url",
				"filter.server_side_all": "server-side-all",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(yolo)
		},
	}

	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics listen address")
	cmd.Flags().Bool("enable-mcp", true, "Serve the MCP endpoint at /mcp")
	cmd.Flags().String("store-driver", config.DriverSQLite, "Store driver: sqlite or postgres")
	cmd.Flags().String("store-dsn", "tagdeck.db", "SQLite path or PostgreSQL connection string")
	cmd.Flags().String("redis-url", "", "Redis URL for session events shared between replicas")
	cmd.Flags().Bool("server-side-all", false, "Evaluate ALL tag filters in the store")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Register MCP tools that modify data (default is read-only)")

	return cmd
}

func runServe(yolo bool) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	slog.SetDefault(logger)

	telemetry := cfg.Telemetry
	telemetry.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, telemetry)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	db, err := openStore(shutdownCtx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tokens := google.NewStoreTokenProvider(memory.New(),
		google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL))
	tokens.SetMetrics(metrics)

	bus, err := newSessionBus(shutdownCtx, cfg.Session, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	opts := server.Options{
		Tokens:           tokens,
		FetchConcurrency: cfg.Dashboard.FetchConcurrency,
		Logger:           logger,
		Metrics:          metrics,
		Connector:        tokens,
		Bus:              bus,
	}
	if telemetry.Audit.Enabled {
		opts.AuditLogger = instrumentation.NewAuditLoggerWithConfig(logger, telemetry.Audit)
	}
	serverContext := server.NewServerContext(shutdownCtx, opts)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	svc := dashboard.New(dashboard.Config{
		Store:         db,
		Clients:       serverContext,
		Logger:        logger,
		Metrics:       metrics,
		PageSize:      cfg.Dashboard.PageSize,
		ServerSideAll: cfg.Filter.ServerSideAll,
		ViewTTL:       cfg.Session.ViewTTL,
		ActivityLimit: cfg.Dashboard.ActivityLimit,
	})
	serverContext.SetService(svc)
	unsubscribe := svc.Subscribe(bus)
	defer unsubscribe()
	go svc.Run(shutdownCtx, viewSweepInterval)

	limiter := api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	go limiter.Run(shutdownCtx, time.Minute, limiterIdle)

	verifier := session.NewVerifier(cfg.Session.JWTSecret, cfg.Session.Issuer, cfg.Session.Audience)
	apiServer := api.NewServer(api.Config{
		Service: svc,
		Auth:    session.NewResolver(verifier, tokens, logger, metrics),
		Tokens:  tokens,
		Bus:     bus,
		Limiter: limiter,
		Logger:  logger,
		Metrics: metrics,
	})

	healthChecker := server.NewHealthChecker(serverContext, db)
	healthChecker.RegisterHealthEndpoints(apiServer)

	if cfg.Server.EnableMCP {
		// readOnly is the inverse of yolo
		readOnly := !yolo
		if readOnly {
			logger.Info("MCP tools in read-only mode (use --yolo to enable write operations)")
		} else {
			logger.Info("MCP tools with write operations enabled (--yolo flag is set)")
		}

		mcpSrv := mcpserver.NewMCPServer("tagdeck", version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		)
		if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
			return err
		}
		apiServer.HandleAuthenticated("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithEndpointPath("/mcp"),
		))
	}

	var metricsServer *server.MetricsServer
	if provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiServer,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("tagdeck server starting",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Driver,
		"mcp", cfg.Server.EnableMCP,
		"metrics_addr", cfg.Server.MetricsAddr)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()
	healthChecker.SetReady(true)

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// newSessionBus returns a Redis bus when a Redis URL is configured so every
// replica sees sign-outs and token changes, and an in-process bus otherwise.
func newSessionBus(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (session.Bus, error) {
	if cfg.RedisURL == "" {
		return session.NewLocalBus(), nil
	}
	bus, err := session.NewRedisBus(ctx, cfg.RedisURL, session.DefaultChannel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect session bus: %w", err)
	}
	return bus, nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Tag tools",
			register: func() error {
				return tag_tools.RegisterTagTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Email tools",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Calendar tools",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Card tools",
			register: func() error {
				return card_tools.RegisterCardTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Activity tools",
			register: func() error {
				return activity_tools.RegisterActivityTools(mcpSrv, ctx)
			},
		},
		{
			name: "Google tools",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
		{
			name: "User Resources",
			register: func() error {
				return resources.RegisterUserResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
