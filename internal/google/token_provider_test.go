package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/teemow/tagdeck/internal/errors"
)

func TestStoreTokenProvider_Token(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	provider := NewStoreTokenProvider(store, nil)
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, provider.SaveToken(ctx, "user-1", tok))

	got, err := provider.Token(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)

	client, err := provider.HTTPClient(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestStoreTokenProvider_MissingToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	provider := NewStoreTokenProvider(store, nil)

	_, err := provider.Token(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, apperrors.IsCredentialExpired(err))

	_, err = provider.HTTPClient(context.Background(), "nobody")
	assert.True(t, apperrors.IsCredentialExpired(err))
}

func TestStoreTokenProvider_ExpiredWithoutRefresh(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	provider := NewStoreTokenProvider(store, nil)
	ctx := context.Background()

	require.NoError(t, provider.SaveToken(ctx, "user-1", &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	_, err := provider.Token(ctx, "user-1")
	assert.True(t, apperrors.IsCredentialExpired(err))
}

func TestStoreTokenProvider_HTTPClientRefreshes(t *testing.T) {
	var refreshes atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	authHeaders := make(chan string, 1)
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders <- r.Header.Get("Authorization")
	}))
	defer apiServer.Close()

	store := memory.New()
	defer store.Stop()

	conf := NewOAuthConfig("id", "secret", "http://localhost/cb")
	conf.Endpoint = oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams}
	provider := NewStoreTokenProvider(store, conf)
	ctx := context.Background()

	// Valid now, inside oauth2's ten second expiry window shortly after.
	require.NoError(t, provider.SaveToken(ctx, "user-1", &oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(11 * time.Second),
	}))

	client, err := provider.HTTPClient(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int32(0), refreshes.Load())

	time.Sleep(1500 * time.Millisecond)

	resp, err := client.Get(apiServer.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer fresh", <-authHeaders)
	assert.Equal(t, int32(1), refreshes.Load())

	stored, err := store.GetToken(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken)
}

func TestScopeHelpers(t *testing.T) {
	assert.True(t, HasGmailScope([]string{"openid", ScopeGmailModify}))
	assert.False(t, HasGmailScope([]string{ScopeCalendar}))
	assert.True(t, HasCalendarScope([]string{ScopeCalendarEvents}))
	assert.False(t, HasCalendarScope(nil))

	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{
		"scope": "openid " + ScopeGmailReadonly + " " + ScopeCalendar,
	})
	assert.Equal(t, []string{"openid", ScopeGmailReadonly, ScopeCalendar}, GrantedScopes(tok))
	assert.Nil(t, GrantedScopes(&oauth2.Token{}))
}

func TestNewOAuthConfig(t *testing.T) {
	conf := NewOAuthConfig("id", "secret", "http://localhost/cb")
	assert.Equal(t, "id", conf.ClientID)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)
	assert.Contains(t, conf.AuthCodeURL("state"), "accounts.google.com")
}

func TestStoreTokenProvider_AuthURLAndConnect(t *testing.T) {
	p := NewStoreTokenProvider(memory.New(), nil)
	_, err := p.AuthURL("state")
	assert.Error(t, err)
	_, err = p.Connect(context.Background(), "user-1", "code")
	assert.Error(t, err)

	p = NewStoreTokenProvider(memory.New(), NewOAuthConfig("id", "secret", "http://localhost/cb"))
	u, err := p.AuthURL("state-1")
	require.NoError(t, err)
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
	assert.Contains(t, u, "state=state-1")
}
