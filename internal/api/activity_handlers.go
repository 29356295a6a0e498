package api

import (
	"net/http"

	"github.com/teemow/tagdeck/internal/dashboard"
)

// handleActivity serves GET /api/activity?limit=&since=. limit caps the merged
// feed; each source is capped by the configured default.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	since, err := parseTime(r, "since")
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	limit, err := parseInt(r, "limit")
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}

	feed, err := s.svc.Activity(r.Context(), mustState(r), dashboard.ActivityQuery{
		Since: since,
		Limit: limit,
		Max:   limit,
	})
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, feed, s.logger)
}
