package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tagdeck/internal/dashboard"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/server"
	"github.com/teemow/tagdeck/internal/tools/batch"
	"github.com/teemow/tagdeck/internal/tools/common"
)

// RegisterEmailTools registers the email mutation tools with the MCP server
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	toggleStarTool := mcp.NewTool("email_toggle_star",
		mcp.WithDescription("Star or unstar one or more emails. The list updates at once and rolls back if Gmail rejects the change."),
		mcp.WithString("emailIds",
			mcp.Required(),
			mcp.Description("Email ID (string) or array of email IDs"),
		),
		withViewID(),
	)
	s.AddTool(toggleStarTool, common.InstrumentedToolHandlerWithService("email_toggle_star", common.ServiceGmail, instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleStar(ctx, request, sc)
		}))

	toggleTagTool := mcp.NewTool("email_toggle_tag",
		mcp.WithDescription("Attach a tag to emails that lack it or detach it from emails that carry it"),
		mcp.WithString("emailIds",
			mcp.Required(),
			mcp.Description("Email ID (string) or array of email IDs"),
		),
		mcp.WithString("tagId",
			mcp.Required(),
			mcp.Description("The ID of the tag"),
		),
		withViewID(),
	)
	s.AddTool(toggleTagTool, common.InstrumentedToolHandlerWithService("email_toggle_tag", common.ServiceStore, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleTag(ctx, request, sc)
		}))

	modifyTool := mcp.NewTool("email_modify",
		mcp.WithDescription("Mark emails read or unread, or archive them"),
		mcp.WithString("emailIds",
			mcp.Required(),
			mcp.Description("Email ID (string) or array of email IDs"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Enum(dashboard.ActionMarkRead, dashboard.ActionMarkUnread, dashboard.ActionArchive),
		),
		withViewID(),
	)
	s.AddTool(modifyTool, common.InstrumentedToolHandlerWithService("email_modify", common.ServiceGmail, instrumentation.OperationModify, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModify(ctx, request, sc)
		}))

	sendEmailTool := mcp.NewTool("email_send",
		mcp.WithDescription("Send an email through Gmail"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("subject",
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Description("Email body content"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithBoolean("isHTML",
			mcp.Description("Whether the body is HTML (default: false for plain text)"),
		),
	)
	s.AddTool(sendEmailTool, common.InstrumentedToolHandlerWithService("email_send", common.ServiceGmail, instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendEmail(ctx, request, sc)
		}))

	return nil
}

// runBatch applies fn to every email id of the request.
func runBatch(ctx context.Context, request mcp.CallToolRequest, fn func(ctx context.Context, emailID string) (interface{}, error)) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["emailIds"], "emailIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := batch.Summarize(batch.ProcessBatch(ctx, ids, fn))
	result, err := common.JSONResult(summary)
	if err != nil {
		return nil, err
	}
	result.IsError = summary.Successful == 0
	return result, nil
}

func handleToggleStar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	viewID := viewIDFromArgs(request.GetArguments())

	return runBatch(ctx, request, func(ctx context.Context, emailID string) (interface{}, error) {
		return svc.ToggleStar(ctx, st.UserID, viewID, emailID)
	})
}

func handleToggleTag(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	tagID := common.StringArg(args, "tagId")
	if tagID == "" {
		return mcp.NewToolResultError("tagId is required"), nil
	}
	viewID := viewIDFromArgs(args)

	return runBatch(ctx, request, func(ctx context.Context, emailID string) (interface{}, error) {
		return svc.ToggleEmailTag(ctx, st.UserID, viewID, emailID, tagID)
	})
}

func handleModify(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()
	action := common.StringArg(args, "action")
	viewID := viewIDFromArgs(args)

	return runBatch(ctx, request, func(ctx context.Context, emailID string) (interface{}, error) {
		return svc.ModifyEmail(ctx, st.UserID, viewID, emailID, action)
	})
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	svc, st, res := common.Begin(ctx, sc)
	if res != nil {
		return res, nil
	}
	args := request.GetArguments()

	msg := &gmail.EmailMessage{
		To:      splitEmailAddresses(common.StringArg(args, "to")),
		Cc:      splitEmailAddresses(common.StringArg(args, "cc")),
		Bcc:     splitEmailAddresses(common.StringArg(args, "bcc")),
		Subject: common.StringArg(args, "subject"),
		Body:    common.StringArg(args, "body"),
		IsHTML:  common.BoolArg(args, "isHTML"),
	}

	messageID, err := svc.SendEmail(ctx, st.UserID, msg)
	if err != nil {
		return common.ErrorResult("send email", err), nil
	}

	result := fmt.Sprintf("Email sent successfully!\nMessage ID: %s\nTo: %s", messageID, strings.Join(msg.To, ", "))
	if msg.Subject != "" {
		result += fmt.Sprintf("\nSubject: %s", msg.Subject)
	}
	if len(msg.Cc) > 0 {
		result += fmt.Sprintf("\nCC: %s", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		result += fmt.Sprintf("\nBCC: %s", strings.Join(msg.Bcc, ", "))
	}
	return mcp.NewToolResultText(result), nil
}

// splitEmailAddresses splits a comma-separated string of email addresses
func splitEmailAddresses(addresses string) []string {
	if addresses == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(addresses, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
