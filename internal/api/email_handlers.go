package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/listcache"
)

// viewID names the client-side view an email request belongs to. Tabs send
// distinct ids so their cursors and selections stay apart.
func viewID(r *http.Request) string {
	if id := r.Header.Get("X-View-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("view_id")
}

type viewRequest struct {
	ViewID string `json:"view_id" validate:"omitempty,max=64,viewid"`
}

// checkViewID rejects malformed view ids before they name a cached view.
func (s *Server) checkViewID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.validate.Validate(viewRequest{ViewID: viewID(r)}); err != nil {
			writeError(w, r, err, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleListEmails serves
// GET /api/emails?view=paged|search|tag|filter&page=next|prev&q=&tag=&tags=&mode=
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := listcache.ParseMode(q.Get("view"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}

	page, err := s.svc.ListEmails(r.Context(), mustState(r).UserID, dashboard.EmailQuery{
		ViewID: viewID(r),
		Mode:   mode,
		Query:  q.Get("q"),
		Tag:    q.Get("tag"),
		Filter: sel,
		Page:   q.Get("page"),
	})
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, page, s.logger)
}

func (s *Server) handleRefreshEmails(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.RefreshEmails(r.Context(), mustState(r).UserID, viewID(r))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, page, s.logger)
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	ids := s.svc.SetSelection(mustState(r).UserID, viewID(r), req.IDs)
	respond(w, selectionRequest{IDs: ids}, s.logger)
}

func (s *Server) handleTaggedToday(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(r)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	listing, err := s.svc.TaggedToday(r.Context(), mustState(r).UserID, loc)
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, listing, s.logger)
}

// handleThread returns the messages of the thread named by {id}.
func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.Thread(r.Context(), mustState(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, msgs, s.logger)
}

type sendRequest struct {
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	IsHTML  bool     `json:"is_html,omitempty"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	id, err := s.svc.SendEmail(r.Context(), mustState(r).UserID, &gmail.EmailMessage{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		Body:    req.Body,
		IsHTML:  req.IsHTML,
	})
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respondCreated(w, map[string]string{"id": id}, s.logger)
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.ToggleStar(r.Context(), mustState(r).UserID, viewID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, state, s.logger)
}

func (s *Server) handleToggleEmailTag(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.ToggleEmailTag(r.Context(), mustState(r).UserID, viewID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, state, s.logger)
}

// handleModifyEmail serves POST /api/emails/{id}/{action} for the
// mark_read, mark_unread and archive actions.
func (s *Server) handleModifyEmail(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.ModifyEmail(r.Context(), mustState(r).UserID, viewID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	respond(w, state, s.logger)
}
