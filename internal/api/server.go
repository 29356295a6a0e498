// Package api provides the JSON HTTP API of the dashboard.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/session"
	"github.com/teemow/tagdeck/internal/validation"
)

// Authenticator resolves an Authorization header into a session.
type Authenticator interface {
	Resolve(ctx context.Context, header string) (*session.State, error)
}

// TokenSaver stores a user's provider token.
type TokenSaver interface {
	SaveToken(ctx context.Context, userID string, tok *oauth2.Token) error
}

// Config holds the dependencies of a Server.
type Config struct {
	Service *dashboard.Service
	Auth    Authenticator
	Tokens  TokenSaver
	Bus     session.Bus
	Limiter *RateLimiter
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      *dashboard.Service
	auth     Authenticator
	tokens   TokenSaver
	bus      session.Bus
	limiter  *RateLimiter
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	validate *validation.Validator
	router   *chi.Mux
}

// NewServer creates a Server with all routes configured.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = session.NewLocalBus()
	}

	s := &Server{
		svc:      cfg.Service,
		auth:     cfg.Auth,
		tokens:   cfg.Tokens,
		bus:      bus,
		limiter:  cfg.Limiter,
		logger:   logger.With("component", "api"),
		metrics:  cfg.Metrics,
		validate: validation.New(),
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle mounts an unauthenticated handler, such as the health probes.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// HandleAuthenticated mounts h behind the same session check and rate limit
// as the JSON API. The MCP endpoint is mounted this way so tool handlers find
// the caller's session in the request context.
func (s *Server) HandleAuthenticated(pattern string, h http.Handler) {
	s.router.With(s.requireSession, s.rateLimit).Handle(pattern, h)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Use(s.rateLimit)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/provider-token", s.handleSaveProviderToken)
			r.Delete("/", s.handleSignOut)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		r.Route("/emails", func(r chi.Router) {
			r.Use(s.checkViewID)
			r.Get("/", s.handleListEmails)
			r.Post("/refresh", s.handleRefreshEmails)
			r.Put("/selection", s.handleSetSelection)
			r.Get("/tagged-today", s.handleTaggedToday)
			r.Post("/send", s.handleSendEmail)
			r.Get("/{id}/thread", s.handleThread)
			r.Post("/{id}/star", s.handleToggleStar)
			r.Post("/{id}/tags/{tagID}", s.handleToggleEmailTag)
			r.Post("/{id}/{action}", s.handleModifyEmail)
		})

		r.Route("/calendar/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Put("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleDeleteEvent)
			r.Post("/{id}/tags/{tagID}", s.handleToggleEventTag)
		})

		r.Route("/cards/timeline", func(r chi.Router) {
			r.Get("/", s.handleListTimelineCards)
			r.Post("/", s.handleCreateTimelineCard)
			r.Put("/{id}", s.handleUpdateTimelineCard)
			r.Delete("/{id}", s.handleDeleteTimelineCard)
			r.Post("/{id}/tags/{tagID}", s.handleToggleTimelineCardTag)
		})

		r.Route("/cards/custom", func(r chi.Router) {
			r.Get("/", s.handleListCustomCards)
			r.Post("/", s.handleCreateCustomCard)
			r.Put("/{id}", s.handleUpdateCustomCard)
			r.Delete("/{id}", s.handleDeleteCustomCard)
			r.Post("/{id}/tags/{tagID}", s.handleToggleCustomCardTag)
		})

		r.Get("/activity", s.handleActivity)
	})
}
