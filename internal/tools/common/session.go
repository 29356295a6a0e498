package common

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/tagdeck/internal/dashboard"
	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/session"
)

// SignInPath is where a user reconnects Google after a credential expired.
const SignInPath = "/signin"

// RequireSession returns the session the transport resolved from the bearer
// token. When there is none the second value is the error result to return.
func RequireSession(ctx context.Context) (*session.State, *mcp.CallToolResult) {
	st, ok := session.FromContext(ctx)
	if !ok || st.UserID == "" {
		return nil, mcp.NewToolResultError("Not signed in. Call the MCP endpoint with a tagdeck bearer token.")
	}
	return st, nil
}

// ErrorResult turns a service error into a tool error. Expired Google
// credentials point the user to the sign-in page.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	if apperrors.IsCredentialExpired(err) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to %s: Google access has expired or was revoked. Sign in again at %s to reconnect.",
			action, SignInPath))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// Begin resolves the caller and the dashboard service of a tool call. When
// either is missing the third value is the error result to return.
func Begin(ctx context.Context, sc *server.ServerContext) (*dashboard.Service, *session.State, *mcp.CallToolResult) {
	st, res := RequireSession(ctx)
	if res != nil {
		return nil, nil, res
	}
	svc := sc.Service()
	if svc == nil {
		return nil, nil, mcp.NewToolResultError("The dashboard service is not available.")
	}
	return svc, st, nil
}
