package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/tagdeck/internal/dashboard"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.ListTags(r.Context(), mustState(r).UserID)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, tags, s.logger)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var in dashboard.TagInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	tag, err := s.svc.CreateTag(r.Context(), mustState(r).UserID, in)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respondCreated(w, tag, s.logger)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.TagPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	tag, err := s.svc.UpdateTag(r.Context(), mustState(r).UserID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, tag, s.logger)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTag(r.Context(), mustState(r).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	noContent(w)
}
