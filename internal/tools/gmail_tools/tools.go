package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/common"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the Gmail tools.
const Group = "gmail"

// RegisterGmailTools registers the Gmail tools.
func RegisterGmailTools(r *registry.Registry, sc *server.ServerContext) error {
	sendTool := mcp.NewTool("send_gmail",
		mcp.WithDescription("Send a plain text email from the authenticated Gmail account"),
		mcp.WithString("to",
			mcp.Required(),
			registry.FormatEmail(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain text email body"),
		),
	)

	return r.Add(Group, sendTool, instrumentation.ServiceGmail,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendGmail(ctx, request, sc)
		})
}

func handleSendGmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	token, denied := common.RequireGoogleToken(ctx)
	if denied != nil {
		return denied, nil
	}

	to := request.GetString("to", "")
	subject := request.GetString("subject", "")
	body := request.GetString("body", "")

	client, err := sc.GmailClient(ctx, token)
	if err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Failed to create Gmail client: %v", err)), nil
	}

	id, err := client.SendEmail(ctx, to, subject, body)
	if err != nil {
		sc.Logger().Warn("Sending email failed", logging.Tool("send_gmail"), logging.Domain(to), logging.Err(err))
		return common.ProviderFailure(ctx, "send email", err), nil
	}

	sc.Logger().Info("Email sent", logging.Tool("send_gmail"), logging.Domain(to), "message_id", id)
	return mcp.NewToolResultText(fmt.Sprintf("Email sent successfully to %s.", to)), nil
}
