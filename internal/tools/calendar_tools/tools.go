package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// RegisterCalendarTools registers all calendar tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List calendar events with their tags. The window defaults to seven days from the start of today."),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("from",
			mcp.Description("Window start in RFC 3339 format"),
		),
		mcp.WithString("to",
			mcp.Description("Window end in RFC 3339 format"),
		),
	}
	listOpts = append(listOpts, common.WithTagFilter()...)
	listEventsTool := mcp.NewTool("calendar_list_events", listOpts...)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("calendar_list_events", common.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	toggleTagTool := mcp.NewTool("calendar_toggle_tag",
		mcp.WithDescription("Attach a tag to an event or detach it when already attached"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
		mcp.WithString("tagId",
			mcp.Required(),
			mcp.Description("The ID of the tag"),
		),
	)
	s.AddTool(toggleTagTool, common.InstrumentedToolHandlerWithService("calendar_toggle_tag", common.ServiceStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleTag(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	q, err := eventQueryFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listing, err := svc.ListEvents(ctx, st.UserID, q)
	if err != nil {
		return common.ErrorResult("list events", err), nil
	}
	return common.JSONResult(listing.Items)
}

func handleToggleTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	tagID := common.StringArg(args, "tagId")
	attached, err := svc.ToggleEventTag(ctx, st.UserID, eventID, tagID)
	if err != nil {
		return common.ErrorResult("toggle event tag", err), nil
	}
	if attached {
		return mcp.NewToolResultText(fmt.Sprintf("Tag %s attached to event %s.", tagID, eventID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Tag %s removed from event %s.", tagID, eventID)), nil
}
