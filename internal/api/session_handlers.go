package api

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/session"
)

// providerTokenRequest carries the Google token obtained at sign-in.
type providerTokenRequest struct {
	AccessToken  string    `json:"access_token" validate:"notblank"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	// Scope is the space separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

func (req providerTokenRequest) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    req.TokenType,
		Expiry:       req.Expiry,
	}
	if req.Scope != "" {
		tok = tok.WithExtra(map[string]any{"scope": req.Scope})
	}
	return tok
}

// handleGetSession returns the signed-in user and their connection flags.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respond(w, mustState(r), s.logger)
}

// handleSaveProviderToken stores the Google token of the signed-in user and
// announces the sign-in.
func (s *Server) handleSaveProviderToken(w http.ResponseWriter, r *http.Request) {
	st := mustState(r)
	if s.tokens == nil {
		writeError(w, r, apperrors.Validation("provider tokens are not accepted by this server"), s.logger)
		return
	}

	var req providerTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	if err := s.validate.Validate(req); err != nil {
		writeError(w, r, err, s.logger)
		return
	}

	if err := s.tokens.SaveToken(r.Context(), st.UserID, req.token()); err != nil {
		writeError(w, r, apperrors.Store(err, "failed to save provider token"), s.logger)
		return
	}
	s.publish(r, session.SignedIn, st.UserID)
	noContent(w)
}

// handleSignOut drops the user's server-side view state.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.publish(r, session.SignedOut, mustState(r).UserID)
	noContent(w)
}

func (s *Server) publish(r *http.Request, typ session.EventType, userID string) {
	ev := session.Event{Type: typ, UserID: userID, At: time.Now()}
	if err := s.bus.Publish(r.Context(), ev); err != nil {
		s.logger.WarnContext(r.Context(), "failed to publish session event",
			logging.UserHash(userID),
			"event", string(typ),
			logging.Err(err))
	}
}
