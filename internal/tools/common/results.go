package common

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/google"
)

type failureKey struct{}

type failureMark struct {
	message string
}

func withFailureMark(ctx context.Context) (context.Context, *failureMark) {
	mark := &failureMark{}
	return context.WithValue(ctx, failureKey{}, mark), mark
}

// FailureText returns message as a normal text result, so the caller sees the
// explanation rather than a protocol-level error. The instrumented handler
// still counts the call as failed.
func FailureText(ctx context.Context, message string) *mcp.CallToolResult {
	if mark, ok := ctx.Value(failureKey{}).(*failureMark); ok {
		mark.message = message
	}
	return mcp.NewToolResultText(message)
}

// ProviderFailure reports a failed upstream call as "Failed to <action>:
// <detail>", where detail is the provider's response body when available.
func ProviderFailure(ctx context.Context, action string, err error) *mcp.CallToolResult {
	return FailureText(ctx, "Failed to "+action+": "+google.ProviderError(err))
}

// ResultText joins the text content of a result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
