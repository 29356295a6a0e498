package google_tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// RegisterGoogleTools registers the tools that reconnect a user's Google account.
// They are available in read-only mode since they only touch the caller's own token.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the URL to connect or reconnect Google (Gmail and Calendar) for the signed-in user"),
	)

	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAuthURL(ctx, request, sc)
	}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Complete the Google connection with the authorization code shown after consent"),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)

	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSaveAuthCode(ctx, request, sc)
	}))

	return nil
}

func handleGetAuthURL(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if _, res := common.RequireSession(ctx); res != nil {
		return res, nil
	}

	authURL, err := sc.GoogleAuthURL(uuid.NewString())
	if err != nil {
		return common.ErrorResult("build the Google sign-in URL", err), nil
	}

	result := fmt.Sprintf(`To connect Google (Gmail and Calendar):

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant access
3. Copy the authorization code
4. Call google_save_auth_code with the code`, authURL)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	st, res := common.RequireSession(ctx)
	if res != nil {
		return res, nil
	}

	authCode := common.StringArg(request.GetArguments(), "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := sc.ConnectGoogle(ctx, st.UserID, authCode); err != nil {
		return common.ErrorResult("save the authorization code", err), nil
	}

	return mcp.NewToolResultText("Google connected. Email and calendar tools now use the new token."), nil
}
