package google_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
	"github.com/teemow/tagdeck/internal/tools/tooltest"
)

type fakeConnector struct {
	saved map[string]string
	err   error
}

func (f *fakeConnector) AuthURL(state string) (string, error) {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state, nil
}

func (f *fakeConnector) Connect(_ context.Context, userID, code string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved[userID] = code
	return &oauth2.Token{AccessToken: "at"}, nil
}

func setup(t *testing.T, conn server.Connector) *mcpserver.MCPServer {
	t.Helper()
	sc := server.NewServerContext(context.Background(), server.Options{Connector: conn})
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterGoogleTools(s, sc))
	return s
}

func call(t *testing.T, ctx context.Context, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)
	result, err := tool.Handler(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	require.NoError(t, err)
	return result
}

func signedIn() context.Context {
	return session.WithState(context.Background(), &session.State{UserID: tooltest.UserID})
}

func TestGetAuthURL(t *testing.T) {
	s := setup(t, &fakeConnector{saved: map[string]string{}})

	result := call(t, signedIn(), s, "google_get_auth_url", nil)
	assert.False(t, result.IsError)
	assert.Contains(t, tooltest.Text(result), "https://accounts.example.com/o/oauth2/auth?state=")
	assert.Contains(t, tooltest.Text(result), "google_save_auth_code")

	result = call(t, context.Background(), s, "google_get_auth_url", nil)
	assert.True(t, result.IsError)
}

func TestSaveAuthCode(t *testing.T) {
	tests := []struct {
		name      string
		connector *fakeConnector
		args      map[string]interface{}
		wantErr   string
		wantSaved string
	}{
		{
			name:      "saves code",
			connector: &fakeConnector{saved: map[string]string{}},
			args:      map[string]interface{}{"authCode": " 4/abc "},
			wantSaved: "4/abc",
		},
		{
			name:      "missing code",
			connector: &fakeConnector{saved: map[string]string{}},
			args:      map[string]interface{}{},
			wantErr:   "authCode is required",
		},
		{
			name:      "exchange fails",
			connector: &fakeConnector{saved: map[string]string{}, err: errors.New("invalid_grant")},
			args:      map[string]interface{}{"authCode": "bad"},
			wantErr:   "invalid_grant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setup(t, tt.connector)
			result := call(t, signedIn(), s, "google_save_auth_code", tt.args)
			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, tooltest.Text(result), tt.wantErr)
				return
			}
			assert.False(t, result.IsError)
			assert.Equal(t, tt.wantSaved, tt.connector.saved[tooltest.UserID])
		})
	}
}

func TestNotConfigured(t *testing.T) {
	s := setup(t, nil)
	result := call(t, signedIn(), s, "google_get_auth_url", nil)
	assert.True(t, result.IsError)
	assert.Contains(t, tooltest.Text(result), "not configured")
}
