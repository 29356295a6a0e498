package card_tools

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

// Card kinds accepted by the "kind" argument.
const (
	KindTimeline = "timeline"
	KindCustom   = "custom"
)

func withKind() mcp.ToolOption {
	return mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("'timeline' for project cards with dates, 'custom' for free-form cards"),
		mcp.Enum(KindTimeline, KindCustom),
	)
}

func withCardID() mcp.ToolOption {
	return mcp.WithString("cardId",
		mcp.Required(),
		mcp.Description("The ID of the card"),
	)
}

func kindFromArgs(args map[string]interface{}) (string, error) {
	switch kind := common.StringArg(args, "kind"); kind {
	case KindTimeline, KindCustom:
		return kind, nil
	default:
		return "", fmt.Errorf("kind must be %q or %q", KindTimeline, KindCustom)
	}
}

// RegisterCardTools registers all card tools with the MCP server
func RegisterCardTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List cards with their tags"),
		withKind(),
	}, common.WithTagFilter()...)
	s.AddTool(mcp.NewTool("card_list", listOpts...),
		common.InstrumentedToolHandlerWithService("card_list", common.ServiceStore, instrumentation.OperationList, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleListCards(ctx, request, sc)
			}))

	if readOnly {
		return nil
	}

	cardFields := []mcp.ToolOption{
		withKind(),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Card title"),
		),
		mcp.WithString("description",
			mcp.Description("Timeline card description"),
		),
		mcp.WithString("startDate",
			mcp.Description("Timeline card start in RFC 3339 format (required for timeline cards)"),
		),
		mcp.WithString("endDate",
			mcp.Description("Timeline card end in RFC 3339 format"),
		),
		mcp.WithString("content",
			mcp.Description("Custom card content"),
		),
	}

	createOpts := append([]mcp.ToolOption{mcp.WithDescription("Create a card")}, cardFields...)
	s.AddTool(mcp.NewTool("card_create", createOpts...),
		common.InstrumentedToolHandlerWithService("card_create", common.ServiceStore, instrumentation.OperationCreate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateCard(ctx, request, sc)
			}))

	updateOpts := append([]mcp.ToolOption{mcp.WithDescription("Replace a card. Its tags are kept."), withCardID()}, cardFields...)
	s.AddTool(mcp.NewTool("card_update", updateOpts...),
		common.InstrumentedToolHandlerWithService("card_update", common.ServiceStore, instrumentation.OperationUpdate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUpdateCard(ctx, request, sc)
			}))

	s.AddTool(mcp.NewTool("card_delete",
		mcp.WithDescription("Delete a card and its tag associations"),
		withKind(),
		withCardID(),
	), common.InstrumentedToolHandlerWithService("card_delete", common.ServiceStore, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteCard(ctx, request, sc)
		}))

	s.AddTool(mcp.NewTool("card_toggle_tag",
		mcp.WithDescription("Attach a tag to a card or detach it when already attached"),
		withKind(),
		withCardID(),
		mcp.WithString("tagId",
			mcp.Required(),
			mcp.Description("The ID of the tag"),
		),
	), common.InstrumentedToolHandlerWithService("card_toggle_tag", common.ServiceStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleTag(ctx, request, sc)
		}))

	return nil
}

func handleListCards(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	kind, err := kindFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := common.SelectionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if kind == KindTimeline {
		listing, err := svc.ListTimelineCards(ctx, st.UserID, sel)
		if err != nil {
			return common.ErrorResult("list timeline cards", err), nil
		}
		return common.JSONResult(listing.Items)
	}
	listing, err := svc.ListCustomCards(ctx, st.UserID, sel)
	if err != nil {
		return common.ErrorResult("list custom cards", err), nil
	}
	return common.JSONResult(listing.Items)
}

func timelineInput(args map[string]interface{}) (dashboard.TimelineCardInput, error) {
	start, err := common.TimeArg(args, "startDate")
	if err != nil {
		return dashboard.TimelineCardInput{}, err
	}
	in := dashboard.TimelineCardInput{
		Title:       common.StringArg(args, "title"),
		Description: common.StringArg(args, "description"),
		StartDate:   start,
	}
	end, err := common.TimeArg(args, "endDate")
	if err != nil {
		return dashboard.TimelineCardInput{}, err
	}
	if !end.IsZero() {
		in.EndDate = &end
	}
	return in, nil
}

func customInput(args map[string]interface{}) dashboard.CustomCardInput {
	return dashboard.CustomCardInput{
		Title:   common.StringArg(args, "title"),
		Content: common.StringArg(args, "content"),
	}
}

func handleCreateCard(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	kind, err := kindFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if kind == KindTimeline {
		in, err := timelineInput(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		card, err := svc.CreateTimelineCard(ctx, st.UserID, in)
		if err != nil {
			return common.ErrorResult("create timeline card", err), nil
		}
		return common.JSONResult(card)
	}
	card, err := svc.CreateCustomCard(ctx, st.UserID, customInput(args))
	if err != nil {
		return common.ErrorResult("create custom card", err), nil
	}
	return common.JSONResult(card)
}

func handleUpdateCard(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	kind, err := kindFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cardID := common.StringArg(args, "cardId")

	if kind == KindTimeline {
		in, err := timelineInput(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		card, err := svc.UpdateTimelineCard(ctx, st.UserID, cardID, in)
		if err != nil {
			return common.ErrorResult("update timeline card", err), nil
		}
		return common.JSONResult(card)
	}
	card, err := svc.UpdateCustomCard(ctx, st.UserID, cardID, customInput(args))
	if err != nil {
		return common.ErrorResult("update custom card", err), nil
	}
	return common.JSONResult(card)
}

func handleDeleteCard(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	kind, err := kindFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cardID := common.StringArg(args, "cardId")

	if kind == KindTimeline {
		err = svc.DeleteTimelineCard(ctx, st.UserID, cardID)
	} else {
		err = svc.DeleteCustomCard(ctx, st.UserID, cardID)
	}
	if err != nil {
		return common.ErrorResult("delete card", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Card %s deleted.", cardID)), nil
}

func handleToggleTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	kind, err := kindFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cardID := common.StringArg(args, "cardId")
	tagID := common.StringArg(args, "tagId")

	var attached bool
	if kind == KindTimeline {
		attached, err = svc.ToggleTimelineCardTag(ctx, st.UserID, cardID, tagID)
	} else {
		attached, err = svc.ToggleCustomCardTag(ctx, st.UserID, cardID, tagID)
	}
	if err != nil {
		return common.ErrorResult("toggle card tag", err), nil
	}
	if attached {
		return mcp.NewToolResultText(fmt.Sprintf("Tag %s attached to card %s.", tagID, cardID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Tag %s removed from card %s.", tagID, cardID)), nil
}
