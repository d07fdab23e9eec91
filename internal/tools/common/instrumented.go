package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/server"
)

// ToolHandler is the mcp-go tool handler signature, usable wherever
// mcpserver.ToolHandlerFunc is expected.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Summarizer extracts a short, loggable description of a request's
// arguments for the audit log.
type Summarizer func(args map[string]any) string

// InstrumentedToolHandler wraps handler with a tool span, metrics and an
// audit record. The wrapped handler never returns a Go error or panics:
// both are turned into an error result, so the calling agent always gets
// a readable message.
//
//	s.AddTool(tool, common.InstrumentedToolHandler("run_pipeline", sc, nil, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, summarize Summarizer, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if summarize != nil {
			invocation.WithSummary(summarize(request.GetArguments()))
		}

		defer func() {
			if r := recover(); r != nil {
				result, err = nil, fmt.Errorf("internal error: %v", r)
			}
			if err != nil {
				result, err = mcp.NewToolResultError(err.Error()), nil
			}

			status := instrumentation.StatusSuccess
			if result != nil && result.IsError {
				status = instrumentation.StatusError
				msg := ResultText(result)
				invocation.CompleteWithError(errors.New(msg))
				instrumentation.SetSpanError(span, errors.New(msg))
			} else {
				invocation.CompleteSuccess()
				instrumentation.SetSpanSuccess(span)
			}

			sc.Metrics().RecordToolInvocation(ctx, toolName, status, time.Since(start))
			sc.AuditLogger().LogToolInvocation(invocation)
		}()

		return handler(ctx, request)
	}
}

// ResultText returns the concatenated text content of result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}
