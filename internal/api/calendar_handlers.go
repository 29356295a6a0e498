package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/tagdeck/internal/dashboard"
)

// handleListEvents serves GET /api/calendar/events?from=&to=&tags=&mode=.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	from, err := parseTime(r, "from")
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	to, err := parseTime(r, "to")
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}

	listing, err := s.svc.ListEvents(r.Context(), mustState(r).UserID, dashboard.EventQuery{
		CalendarID: r.URL.Query().Get("calendar"),
		From:       from,
		To:         to,
		Filter:     sel,
	})
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, listing, s.logger)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in dashboard.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	ev, err := s.svc.CreateEvent(r.Context(), mustState(r).UserID, in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respondCreated(w, ev, s.logger)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in dashboard.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	ev, err := s.svc.UpdateEvent(r.Context(), mustState(r).UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, ev, s.logger)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEvent(r.Context(), mustState(r).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	noContent(w)
}

func (s *Server) handleToggleEventTag(w http.ResponseWriter, r *http.Request) {
	attached, err := s.svc.ToggleEventTag(r.Context(), mustState(r).UserID,
		chi.URLParam(r, "id"), chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, toggleResponse{Attached: attached}, s.logger)
}

// toggleResponse reports the tag state after a toggle.
type toggleResponse struct {
	Attached bool `json:"attached"`
}
