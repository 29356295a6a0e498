package session

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/teemow/tagdeck/internal/google"
)

// State is the signed-in user as seen by one request.
type State struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	BearerToken string `json:"-"`
	// ProviderToken is the Google token held for the user, nil when none is held
	// or it could not be refreshed.
	ProviderToken     *oauth2.Token `json:"-"`
	GmailConnected    bool          `json:"gmail_connected"`
	CalendarConnected bool          `json:"calendar_connected"`
}

// NewState builds the state for verified claims. Connection flags come from the
// scopes granted to the provider token; a token that does not record its scopes
// is taken to hold the full sign-in set.
func NewState(claims *Claims, bearer string, providerToken *oauth2.Token) *State {
	granted := google.GrantedScopes(providerToken)
	if providerToken != nil && len(granted) == 0 {
		granted = google.DefaultOAuthScopes
	}
	return &State{
		UserID:            claims.Subject,
		Email:             claims.Email,
		BearerToken:       bearer,
		ProviderToken:     providerToken,
		GmailConnected:    providerToken != nil && google.HasGmailScope(granted),
		CalendarConnected: providerToken != nil && google.HasCalendarScope(granted),
	}
}

type contextKey struct{}

// WithState returns a context carrying s.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the state stored by WithState.
func FromContext(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(contextKey{}).(*State)
	return s, ok && s != nil
}
