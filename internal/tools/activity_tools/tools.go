package activity_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// RegisterActivityTools registers the activity feed tool with the MCP server
func RegisterActivityTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	feedTool := mcp.NewTool("activity_feed",
		mcp.WithDescription("Recent tag changes, card edits and calendar events, newest first"),
		mcp.WithString("since",
			mcp.Description("Only entries at or after this RFC 3339 time"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default: 50)"),
		),
	)
	s.AddTool(feedTool, common.InstrumentedToolHandlerWithService("activity_feed", common.ServiceStore, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleActivityFeed(ctx, request, sc)
		}))

	return nil
}

func handleActivityFeed(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	since, err := common.TimeArg(args, "since")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := common.IntArg(args, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := svc.Activity(ctx, st, dashboard.ActivityQuery{Since: since, Limit: limit, Max: limit})
	if err != nil {
		return common.ErrorResult("load activity", err), nil
	}
	return common.JSONResult(entries)
}
