package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/common"
)

func eventQueryFromArgs(args map[string]interface{}) (dashboard.EventQuery, error) {
	from, err := common.TimeArg(args, "from")
	if err != nil {
		return dashboard.EventQuery{}, err
	}
	to, err := common.TimeArg(args, "to")
	if err != nil {
		return dashboard.EventQuery{}, err
	}
	sel, err := common.SelectionArg(args)
	if err != nil {
		return dashboard.EventQuery{}, err
	}
	return dashboard.EventQuery{
		CalendarID: common.StringArg(args, "calendarId"),
		From:       from,
		To:         to,
		Filter:     sel,
	}, nil
}

func eventInputFromArgs(args map[string]interface{}) (dashboard.EventInput, error) {
	start, err := common.TimeArg(args, "start")
	if err != nil {
		return dashboard.EventInput{}, err
	}
	end, err := common.TimeArg(args, "end")
	if err != nil {
		return dashboard.EventInput{}, err
	}
	attendees, err := common.StringListArg(args, "attendees")
	if err != nil {
		return dashboard.EventInput{}, err
	}
	return dashboard.EventInput{
		Summary:     common.StringArg(args, "summary"),
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		Start:       start,
		End:         end,
		AllDay:      common.BoolArg(args, "allDay"),
		TimeZone:    common.StringArg(args, "timeZone"),
		Attendees:   attendees,
	}, nil
}

func eventInputOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time in RFC 3339 format"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time in RFC 3339 format"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithBoolean("allDay",
			mcp.Description("Whether the event spans whole days"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone of the event"),
		),
		mcp.WithString("attendees",
			mcp.Description("Attendee email addresses, comma-separated"),
		),
	}
}

// RegisterEventTools registers the event write tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Create an event on the primary calendar"),
	}, eventInputOptions()...)
	s.AddTool(mcp.NewTool("calendar_create_event", createOpts...),
		common.InstrumentedToolHandlerWithService("calendar_create_event", common.ServiceCalendar, instrumentation.OperationCreate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateEvent(ctx, request, sc)
			}))

	updateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Replace an event on the primary calendar. Its tags are kept."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
	}, eventInputOptions()...)
	s.AddTool(mcp.NewTool("calendar_update_event", updateOpts...),
		common.InstrumentedToolHandlerWithService("calendar_update_event", common.ServiceCalendar, instrumentation.OperationUpdate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUpdateEvent(ctx, request, sc)
			}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete an event from the primary calendar"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
	)
	s.AddTool(deleteEventTool,
		common.InstrumentedToolHandlerWithService("calendar_delete_event", common.ServiceCalendar, instrumentation.OperationDelete, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteEvent(ctx, request, sc)
			}))

	return nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	in, err := eventInputFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := svc.CreateEvent(ctx, st.UserID, in)
	if err != nil {
		return common.ErrorResult("create event", err), nil
	}
	return common.JSONResult(ev)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	in, err := eventInputFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := svc.UpdateEvent(ctx, st.UserID, common.StringArg(args, "eventId"), in)
	if err != nil {
		return common.ErrorResult("update event", err), nil
	}
	return common.JSONResult(ev)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	eventID := common.StringArg(request.GetArguments(), "eventId")
	if err := svc.DeleteEvent(ctx, st.UserID, eventID); err != nil {
		return common.ErrorResult("delete event", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted.", eventID)), nil
}
