package puch_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the Puch tools.
const Group = "puch"

// MsgNumberNotConfigured is returned by validate when MY_NUMBER is unset.
const MsgNumberNotConfigured = "MY_NUMBER is not configured on this server."

// RegisterPuchTools registers validate.
func RegisterPuchTools(r *registry.Registry, sc *server.ServerContext) error {
	validate := mcp.NewTool("validate",
		mcp.WithDescription("Return the phone number of the server owner, digits only with country code"),
	)

	return r.Add(Group, validate, instrumentation.ServiceLocal,
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			number := sc.Config().Puch.MyNumber
			if number == "" {
				return mcp.NewToolResultError(MsgNumberNotConfigured), nil
			}
			return mcp.NewToolResultText(number), nil
		})
}
