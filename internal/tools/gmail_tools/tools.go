package gmail_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// DefaultViewID is the list view MCP calls use unless they name another.
const DefaultViewID = "mcp"

func viewIDFromArgs(args map[string]interface{}) string {
	if id := common.StringArg(args, "viewId"); id != "" {
		return id
	}
	return DefaultViewID
}

func withViewID() mcp.ToolOption {
	return mcp.WithString("viewId",
		mcp.Description("List view to act on (default: 'mcp'). Each view keeps its own cursor and selection."),
		mcp.MaxLength(64),
		mcp.Pattern("^[A-Za-z0-9_-]+$"),
	)
}

// RegisterGmailTools registers all email tools with the MCP server
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List emails with their tags. Changing view, query, tag or filter starts again at the first page."),
		mcp.WithString("view",
			mcp.Description("What to list: 'paged' inbox (default), 'search' by query, legacy single 'tag' by name, or multi-tag 'filter'"),
			mcp.Enum(string(listcache.ModePaged), string(listcache.ModeSearching), string(listcache.ModeLegacyTagView), string(listcache.ModeMultiTagView)),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query for the 'search' view"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag name for the 'tag' view"),
		),
		mcp.WithString("page",
			mcp.Description("'next' or 'prev' to move along the pages; omit to reload the current page"),
			mcp.Enum(dashboard.PageNext, dashboard.PagePrev),
		),
		withViewID(),
	}
	listOpts = append(listOpts, common.WithTagFilter()...)
	listEmailsTool := mcp.NewTool("email_list", listOpts...)
	s.AddTool(listEmailsTool, common.InstrumentedToolHandlerWithService("email_list", common.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEmails(ctx, request, sc)
		}))

	refreshTool := mcp.NewTool("email_refresh",
		mcp.WithDescription("Drop the cached pages of a view and reload its first page"),
		withViewID(),
	)
	s.AddTool(refreshTool, common.InstrumentedToolHandlerWithService("email_refresh", common.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRefresh(ctx, request, sc)
		}))

	taggedTodayTool := mcp.NewTool("email_tagged_today",
		mcp.WithDescription("List the emails that received a tag since the start of today"),
		mcp.WithString("timezone",
			mcp.Description("IANA time zone that defines 'today' (default: UTC)"),
		),
	)
	s.AddTool(taggedTodayTool, common.InstrumentedToolHandlerWithService("email_tagged_today", common.ServiceGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTaggedToday(ctx, request, sc)
		}))

	threadTool := mcp.NewTool("email_get_thread",
		mcp.WithDescription("Get the messages of a Gmail thread, oldest first"),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The ID of the thread"),
		),
	)
	s.AddTool(threadTool, common.InstrumentedToolHandlerWithService("email_get_thread", common.ServiceGmail, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetThread(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	return RegisterEmailTools(s, sc)
}

func handleListEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	mode, err := listcache.ParseMode(common.StringArg(args, "view"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := common.SelectionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := svc.ListEmails(ctx, st.UserID, dashboard.EmailQuery{
		ViewID: viewIDFromArgs(args),
		Mode:   mode,
		Query:  common.StringArg(args, "query"),
		Tag:    common.StringArg(args, "tag"),
		Filter: sel,
		Page:   common.StringArg(args, "page"),
	})
	if err != nil {
		return common.ErrorResult("list emails", err), nil
	}
	return common.JSONResult(page)
}

func handleRefresh(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	page, err := svc.RefreshEmails(ctx, st.UserID, viewIDFromArgs(request.GetArguments()))
	if err != nil {
		return common.ErrorResult("refresh emails", err), nil
	}
	return common.JSONResult(page)
}

func handleTaggedToday(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	loc := time.UTC
	if name := common.StringArg(request.GetArguments(), "timezone"); name != "" {
		var err error
		if loc, err = time.LoadLocation(name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown time zone %q", name)), nil
		}
	}

	listing, err := svc.TaggedToday(ctx, st.UserID, loc)
	if err != nil {
		return common.ErrorResult("list emails tagged today", err), nil
	}
	return common.JSONResult(listing.Items)
}

func handleGetThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	threadID := common.StringArg(request.GetArguments(), "threadId")
	if threadID == "" {
		return mcp.NewToolResultError("threadId is required"), nil
	}
	messages, err := svc.Thread(ctx, st.UserID, threadID)
	if err != nil {
		return common.ErrorResult("get thread", err), nil
	}
	return common.JSONResult(messages)
}
