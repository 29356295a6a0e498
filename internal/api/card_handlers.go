package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/tagdeck/internal/dashboard"
)

func (s *Server) handleListTimelineCards(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	listing, err := s.svc.ListTimelineCards(r.Context(), mustState(r).UserID, sel)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, listing, s.logger)
}

func (s *Server) handleCreateTimelineCard(w http.ResponseWriter, r *http.Request) {
	var in dashboard.TimelineCardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	card, err := s.svc.CreateTimelineCard(r.Context(), mustState(r).UserID, in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respondCreated(w, card, s.logger)
}

func (s *Server) handleUpdateTimelineCard(w http.ResponseWriter, r *http.Request) {
	var in dashboard.TimelineCardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	card, err := s.svc.UpdateTimelineCard(r.Context(), mustState(r).UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, card, s.logger)
}

func (s *Server) handleDeleteTimelineCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTimelineCard(r.Context(), mustState(r).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	noContent(w)
}

func (s *Server) handleToggleTimelineCardTag(w http.ResponseWriter, r *http.Request) {
	attached, err := s.svc.ToggleTimelineCardTag(r.Context(), mustState(r).UserID,
		chi.URLParam(r, "id"), chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, toggleResponse{Attached: attached}, s.logger)
}

func (s *Server) handleListCustomCards(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	listing, err := s.svc.ListCustomCards(r.Context(), mustState(r).UserID, sel)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, listing, s.logger)
}

func (s *Server) handleCreateCustomCard(w http.ResponseWriter, r *http.Request) {
	var in dashboard.CustomCardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	card, err := s.svc.CreateCustomCard(r.Context(), mustState(r).UserID, in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respondCreated(w, card, s.logger)
}

func (s *Server) handleUpdateCustomCard(w http.ResponseWriter, r *http.Request) {
	var in dashboard.CustomCardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	card, err := s.svc.UpdateCustomCard(r.Context(), mustState(r).UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, card, s.logger)
}

func (s *Server) handleDeleteCustomCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCustomCard(r.Context(), mustState(r).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	noContent(w)
}

func (s *Server) handleToggleCustomCardTag(w http.ResponseWriter, r *http.Request) {
	attached, err := s.svc.ToggleCustomCardTag(r.Context(), mustState(r).UserID,
		chi.URLParam(r, "id"), chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, toggleResponse{Attached: attached}, s.logger)
}
