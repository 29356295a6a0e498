package google

import (
	"context"
	"fmt"
	"net/http"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
)

// TokenProvider hands out provider tokens and authenticated HTTP clients per user.
type TokenProvider interface {
	// Token returns a valid token for userID, refreshing it when needed.
	Token(ctx context.Context, userID string) (*oauth2.Token, error)

	// HTTPClient returns an HTTP client authenticated as userID.
	HTTPClient(ctx context.Context, userID string) (*http.Client, error)
}

// StoreTokenProvider implements TokenProvider on top of an mcp-oauth TokenStore.
type StoreTokenProvider struct {
	store   storage.TokenStore
	conf    *oauth2.Config
	metrics *instrumentation.Metrics
}

// NewStoreTokenProvider creates a token provider reading from store. conf is used to
// refresh expired tokens and may be nil when refresh is not available.
func NewStoreTokenProvider(store storage.TokenStore, conf *oauth2.Config) *StoreTokenProvider {
	return &StoreTokenProvider{store: store, conf: conf}
}

// SetMetrics sets the recorder for refresh attempts.
func (p *StoreTokenProvider) SetMetrics(m *instrumentation.Metrics) {
	p.metrics = m
}

// SaveToken stores the provider token for userID.
func (p *StoreTokenProvider) SaveToken(ctx context.Context, userID string, tok *oauth2.Token) error {
	if err := p.store.SaveToken(ctx, userID, tok); err != nil {
		return fmt.Errorf("failed to save provider token: %w", err)
	}
	return nil
}

// AuthURL returns the consent URL a user visits to connect Google.
func (p *StoreTokenProvider) AuthURL(state string) (string, error) {
	if p.conf == nil {
		return "", fmt.Errorf("google sign-in is not configured")
	}
	return AuthURL(p.conf, state), nil
}

// Connect exchanges an authorization code and stores the token for userID.
func (p *StoreTokenProvider) Connect(ctx context.Context, userID, code string) (*oauth2.Token, error) {
	if p.conf == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}
	tok, err := ExchangeCode(ctx, p.conf, code)
	if err != nil {
		return nil, err
	}
	if err := p.SaveToken(ctx, userID, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Token returns the stored token for userID. Expired tokens are refreshed and the
// refreshed token is written back.
func (p *StoreTokenProvider) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	tok, err := p.store.GetToken(ctx, userID)
	if err != nil || tok == nil {
		return nil, apperrors.CredentialExpired("no provider token for user")
	}
	if tok.Valid() {
		return tok, nil
	}
	if p.conf == nil || tok.RefreshToken == "" {
		p.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.AuthResultExpired)
		return nil, apperrors.CredentialExpired("provider token expired")
	}

	fresh, err := p.conf.TokenSource(ctx, tok).Token()
	if err != nil {
		p.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.AuthResultFailure)
		return nil, apperrors.Wrap(err, apperrors.CodeCredentialExpired, "provider token refresh failed")
	}
	p.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.AuthResultSuccess)
	if err := p.SaveToken(ctx, userID, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// HTTPClient returns an HTTP client authenticated as userID. The client goes
// back to the store once the current token nears expiry, so it can be kept
// for longer than a single access token lives.
func (p *StoreTokenProvider) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	tok, err := p.Token(ctx, userID)
	if err != nil {
		return nil, err
	}
	src := &userTokenSource{ctx: ctx, provider: p, userID: userID}
	return NewHTTPClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// userTokenSource reads one user's token through the provider, refreshing
// and saving it as needed.
type userTokenSource struct {
	ctx      context.Context
	provider *StoreTokenProvider
	userID   string
}

func (s *userTokenSource) Token() (*oauth2.Token, error) {
	return s.provider.Token(s.ctx, s.userID)
}
