package tag_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// RegisterTagTools registers the tag tools. Write tools are left out when readOnly is set.
func RegisterTagTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTagsTool := mcp.NewTool("tag_list",
		mcp.WithDescription("List the caller's tags. A user without tags gets the starter pin and priority sets."),
	)
	s.AddTool(listTagsTool, common.InstrumentedToolHandlerWithService("tag_list", common.ServiceStore, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTags(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createTagTool := mcp.NewTool("tag_create",
		mcp.WithDescription(fmt.Sprintf("Create a tag. Each user may own at most %d tags per type.", store.MaxTagsPerType)),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Tag name"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Tag type"),
			mcp.Enum(string(store.TagTypePin), string(store.TagTypePriority)),
		),
		mcp.WithString("color",
			mcp.Description("Hex color such as #34A853 (default depends on the type)"),
		),
	)
	s.AddTool(createTagTool, common.InstrumentedToolHandlerWithService("tag_create", common.ServiceStore, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTag(ctx, request, sc)
		}))

	updateTagTool := mcp.NewTool("tag_update",
		mcp.WithDescription("Rename or recolor a tag. Cached email lists pick up the change immediately."),
		mcp.WithString("tagId",
			mcp.Required(),
			mcp.Description("The ID of the tag"),
		),
		mcp.WithString("name",
			mcp.Description("New name"),
		),
		mcp.WithString("color",
			mcp.Description("New hex color"),
		),
	)
	s.AddTool(updateTagTool, common.InstrumentedToolHandlerWithService("tag_update", common.ServiceStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTag(ctx, request, sc)
		}))

	deleteTagTool := mcp.NewTool("tag_delete",
		mcp.WithDescription("Delete a tag and detach it from every email, event and card"),
		mcp.WithString("tagId",
			mcp.Required(),
			mcp.Description("The ID of the tag"),
		),
	)
	s.AddTool(deleteTagTool, common.InstrumentedToolHandlerWithService("tag_delete", common.ServiceStore, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteTag(ctx, request, sc)
		}))

	return nil
}

func handleListTags(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	tags, err := svc.ListTags(ctx, st.UserID)
	if err != nil {
		return common.ErrorResult("list tags", err), nil
	}
	return common.JSONResult(tags)
}

func handleCreateTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	tag, err := svc.CreateTag(ctx, st.UserID, dashboard.TagInput{
		Name:  common.StringArg(args, "name"),
		Type:  common.StringArg(args, "type"),
		Color: common.StringArg(args, "color"),
	})
	if err != nil {
		return common.ErrorResult("create tag", err), nil
	}
	return common.JSONResult(tag)
}

func handleUpdateTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	tagID := common.StringArg(args, "tagId")
	if tagID == "" {
		return mcp.NewToolResultError("tagId is required"), nil
	}
	var patch dashboard.TagPatch
	if name, ok := args["name"].(string); ok {
		patch.Name = &name
	}
	if color, ok := args["color"].(string); ok {
		patch.Color = &color
	}
	if patch.Name == nil && patch.Color == nil {
		return mcp.NewToolResultError("name or color is required"), nil
	}

	tag, err := svc.UpdateTag(ctx, st.UserID, tagID, patch)
	if err != nil {
		return common.ErrorResult("update tag", err), nil
	}
	return common.JSONResult(tag)
}

func handleDeleteTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}

	tagID := common.StringArg(request.GetArguments(), "tagId")
	if tagID == "" {
		return mcp.NewToolResultError("tagId is required"), nil
	}
	if err := svc.DeleteTag(ctx, st.UserID, tagID); err != nil {
		return common.ErrorResult("delete tag", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Tag %s deleted.", tagID)), nil
}
