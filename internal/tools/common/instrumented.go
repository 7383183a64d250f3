package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging. service names the upstream the tool talks to, or
// instrumentation.ServiceLocal for tools that do not leave the process.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", instrumentation.ServiceDrive, sc, handler))
func InstrumentedToolHandler(
	toolName string,
	service string,
	sc *server.ServerContext,
	handler mcpserver.ToolHandlerFunc,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		// If no instrumentation configured, just call the handler
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()

		session := Session(ctx)
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(service, toolName).
			WithUser(session.Email, session.ClientID)

		ctx, mark := withFailureMark(ctx)
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		errMsg := ""
		switch {
		case err != nil:
			status = instrumentation.StatusError
			errMsg = err.Error()
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			errMsg = ResultText(result)
		case mark.message != "":
			status = instrumentation.StatusError
			errMsg = mark.message
		}
		invocation.Complete(status == instrumentation.StatusSuccess, errMsg)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrStatus, status))
		instrumentation.EndSpan(span, err)

		metrics.RecordToolInvocation(ctx, toolName, status, session.Email, duration)
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
