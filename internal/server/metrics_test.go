package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/session"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		config      MetricsServerConfig
		errContains string
	}{
		{
			name:   "valid config",
			config: MetricsServerConfig{Addr: ":9090", InstrumentationProvider: createTestProvider(t)},
		},
		{
			name:   "default addr",
			config: MetricsServerConfig{InstrumentationProvider: createTestProvider(t)},
		},
		{
			name:        "nil provider",
			config:      MetricsServerConfig{Addr: ":9090"},
			errContains: "instrumentation provider is required",
		},
		{
			name:        "disabled provider",
			config:      MetricsServerConfig{Addr: ":9090", InstrumentationProvider: createDisabledProvider(t)},
			errContains: "does not export to prometheus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMetricsServer(tt.config)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, server.Addr())
		})
	}
}

func TestMetricsServer_Handler(t *testing.T) {
	provider := createTestProvider(t)
	provider.Metrics().RecordFilterEvaluation(context.Background(), "email", "all", instrumentation.EvaluationClient)

	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: createTestProvider(t)})
	require.NoError(t, err)
	assert.NoError(t, server.Shutdown(context.Background()))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		ping       error
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all ok",
			ready:      true,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "store": "ok"},
		},
		{
			name:       "store down",
			ready:      true,
			ping:       errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "store": "unavailable"},
		},
		{
			name:       "not ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "not ready", "shutdown": "ok", "store": "ok"},
		},
		{
			name:       "shutting down",
			ready:      true,
			shutdown:   true,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "shutting down", "store": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewServerContext(context.Background(), Options{})
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}
			h := NewHealthChecker(sc, pingFunc(func(context.Context) error { return tt.ping }))
			h.SetReady(tt.ready)

			w := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestServerContext_NoTokenProvider(t *testing.T) {
	sc := NewServerContext(context.Background(), Options{})
	_, err := sc.Mailbox(context.Background(), "user-1")
	assert.Error(t, err)

	require.NoError(t, sc.Shutdown())
	_, err = sc.Calendar(context.Background(), "user-1")
	assert.ErrorContains(t, err, "shutting down")
}

type fakeConnector struct {
	codes map[string]string
	err   error
}

func (f *fakeConnector) AuthURL(state string) (string, error) {
	return "https://accounts.example.com/auth?state=" + state, nil
}

func (f *fakeConnector) Connect(_ context.Context, userID, code string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.codes[userID] = code
	return &oauth2.Token{AccessToken: "at"}, nil
}

func TestServerContext_ConnectGoogle(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		sc := NewServerContext(context.Background(), Options{})
		_, err := sc.GoogleAuthURL("s")
		assert.Error(t, err)
		assert.Error(t, sc.ConnectGoogle(context.Background(), "user-1", "code"))
	})

	t.Run("publishes sign-in", func(t *testing.T) {
		bus := session.NewLocalBus()
		t.Cleanup(func() { _ = bus.Close() })
		events := make(chan session.Event, 1)
		bus.Subscribe(func(ev session.Event) { events <- ev })

		conn := &fakeConnector{codes: make(map[string]string)}
		sc := NewServerContext(context.Background(), Options{Connector: conn, Bus: bus})

		u, err := sc.GoogleAuthURL("s-1")
		require.NoError(t, err)
		assert.Contains(t, u, "state=s-1")

		require.NoError(t, sc.ConnectGoogle(context.Background(), "user-1", "code-1"))
		assert.Equal(t, "code-1", conn.codes["user-1"])

		ev := <-events
		assert.Equal(t, session.SignedIn, ev.Type)
		assert.Equal(t, "user-1", ev.UserID)
	})

	t.Run("exchange fails", func(t *testing.T) {
		sc := NewServerContext(context.Background(), Options{Connector: &fakeConnector{err: errors.New("invalid_grant")}})
		assert.ErrorContains(t, sc.ConnectGoogle(context.Background(), "user-1", "bad"), "invalid_grant")
	})
}

func createTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = provider.Shutdown(ctx)
	})
	return provider
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	require.NoError(t, err)
	return provider
}
