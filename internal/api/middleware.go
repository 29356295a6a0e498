package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/session"
)

// requireSession resolves the bearer token into a session state and attaches
// it to the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := s.auth.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err, s.logger)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithState(r.Context(), st)))
	})
}

// rateLimit throttles each signed-in user independently. It must run after
// requireSession.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := mustState(r)
		if !s.limiter.Allow(st.UserID) {
			s.logger.WarnContext(r.Context(), "rate limit exceeded",
				logging.UserHash(st.UserID),
				"path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Code:    "RATE_LIMITED",
				Message: "too many requests, please try again later",
			}, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs every request and records it under its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)

		s.metrics.RecordHTTPRequest(r.Context(), r.Method, route, status, duration)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			logging.Status(http.StatusText(status)),
			"status_code", status,
			"bytes", ww.BytesWritten(),
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// mustState returns the session of an authenticated request.
func mustState(r *http.Request) *session.State {
	st, ok := session.FromContext(r.Context())
	if !ok {
		panic(apperrors.ErrInternal)
	}
	return st
}
