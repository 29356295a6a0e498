package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/teemow/tagdeck/internal/calendar"
	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/google"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/session"
)

// userClients are the Google clients built for one user.
type userClients struct {
	gmail    *gmail.Client
	calendar *calendar.Client
}

// ServerContext holds the shared dependencies of the API and the MCP tools
// and caches per-user Google clients.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	tokens      google.TokenProvider
	concurrency int
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	connector   Connector
	bus         session.Bus
	service     *dashboard.Service

	mu       sync.RWMutex
	clients  map[string]*userClients
	shutdown bool
}

var _ dashboard.Clients = (*ServerContext)(nil)

// Connector completes a Google authorization for a user.
type Connector interface {
	AuthURL(state string) (string, error)
	Connect(ctx context.Context, userID, code string) (*oauth2.Token, error)
}

// Options configures a ServerContext.
type Options struct {
	Tokens google.TokenProvider
	// FetchConcurrency bounds parallel Gmail metadata fetches per client.
	FetchConcurrency int
	Logger           *slog.Logger
	Metrics          *instrumentation.Metrics
	AuditLogger      *instrumentation.AuditLogger
	// Connector enables reconnecting Google from MCP clients.
	Connector Connector
	// Bus receives a sign-in event after a reconnect.
	Bus session.Bus
}

// NewServerContext creates a new server context. Clients are built lazily per
// user from the token provider.
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		tokens:      opts.Tokens,
		concurrency: opts.FetchConcurrency,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		connector:   opts.Connector,
		bus:         opts.Bus,
		clients:     make(map[string]*userClients),
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Metrics returns the metrics recorder, nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger, nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// SetService attaches the dashboard service built on top of this context.
func (sc *ServerContext) SetService(svc *dashboard.Service) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.service = svc
}

// Service returns the dashboard service.
func (sc *ServerContext) Service() *dashboard.Service {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.service
}

// Mailbox returns the Gmail client of userID, building it on first use.
func (sc *ServerContext) Mailbox(ctx context.Context, userID string) (dashboard.Mailbox, error) {
	c, err := sc.clientsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.gmail, nil
}

// Calendar returns the Calendar client of userID, building it on first use.
func (sc *ServerContext) Calendar(ctx context.Context, userID string) (dashboard.Calendar, error) {
	c, err := sc.clientsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.calendar, nil
}

// GoogleAuthURL returns the consent URL for reconnecting Google.
func (sc *ServerContext) GoogleAuthURL(state string) (string, error) {
	if sc.connector == nil {
		return "", fmt.Errorf("google sign-in is not configured")
	}
	return sc.connector.AuthURL(state)
}

// ConnectGoogle exchanges an authorization code for userID, drops the cached
// clients and announces the sign-in.
func (sc *ServerContext) ConnectGoogle(ctx context.Context, userID, code string) error {
	if sc.connector == nil {
		return fmt.Errorf("google sign-in is not configured")
	}
	if _, err := sc.connector.Connect(ctx, userID, code); err != nil {
		return err
	}
	sc.Forget(userID)
	if sc.bus != nil {
		ev := session.Event{Type: session.SignedIn, UserID: userID, At: time.Now()}
		if err := sc.bus.Publish(ctx, ev); err != nil {
			sc.logger.Warn("failed to publish session event", logging.UserHash(userID), logging.Err(err))
		}
	}
	return nil
}

// Forget drops the cached clients of userID so the next call picks up a new token.
func (sc *ServerContext) Forget(userID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.clients, userID)
}

func (sc *ServerContext) clientsFor(ctx context.Context, userID string) (*userClients, error) {
	sc.mu.RLock()
	c, ok := sc.clients[userID]
	shutdown := sc.shutdown
	sc.mu.RUnlock()
	if ok {
		return c, nil
	}
	if shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if sc.tokens == nil {
		return nil, fmt.Errorf("no token provider configured")
	}

	// Clients outlive the request; only the token check runs on ctx.
	if _, err := sc.tokens.Token(ctx, userID); err != nil {
		return nil, err
	}
	httpClient, err := sc.tokens.HTTPClient(sc.ctx, userID)
	if err != nil {
		return nil, err
	}

	gmailClient, err := gmail.NewClient(sc.ctx, gmail.Config{Concurrency: sc.concurrency, Metrics: sc.metrics},
		option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	calendarClient, err := calendar.NewClient(sc.ctx, calendar.Config{Metrics: sc.metrics},
		option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.clients[userID]; ok {
		return existing, nil
	}
	c = &userClients{gmail: gmailClient, calendar: calendarClient}
	sc.clients[userID] = c
	sc.logger.Debug("created Google clients", logging.UserHash(userID))
	return c, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.clients = make(map[string]*userClients)
	sc.cancel()
	return nil
}
