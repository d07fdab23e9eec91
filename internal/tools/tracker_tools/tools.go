package tracker_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/pipeline"
	"github.com/teemow/applytrack/internal/server"
	"github.com/teemow/applytrack/internal/sheets"
	"github.com/teemow/applytrack/internal/tools/common"
)

// Tool names.
const (
	ToolRunPipeline    = "run_pipeline"
	ToolAddApplication = "add_application"
	ToolUpdateStatus   = "update_application_status"
	ToolQueryEmails    = "query_emails"
)

// RegisterTrackerTools adds the tracker tools to s. With readOnly the
// spreadsheet-writing tools are left out.
func RegisterTrackerTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	s.AddTool(mcp.NewTool(ToolRunPipeline,
		mcp.WithDescription("Fetch new emails since the last run, classify each one as a job application update or irrelevant, "+
			"and archive them locally. Returns counts of fetched, classified and failed emails."),
	), common.InstrumentedToolHandler(ToolRunPipeline, sc, nil, runPipelineHandler(sc)))

	s.AddTool(mcp.NewTool(ToolQueryEmails,
		mcp.WithDescription("Answer a question about the fetched emails. Each archived email is one document; "+
			"use this to look up the latest news from a company before updating the spreadsheet."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. 'What is the latest on my application to Two Sigma?'"),
		),
	), common.InstrumentedToolHandler(ToolQueryEmails, sc, nil, queryEmailsHandler(sc)))

	if readOnly {
		return nil
	}

	s.AddTool(mcp.NewTool(ToolAddApplication,
		mcp.WithDescription("Add a new job application row to the tracking spreadsheet."),
		mcp.WithString("job_title", mcp.Required(), mcp.Description("The role applied for")),
		mcp.WithString("company", mcp.Required(), mcp.Description("The company applied to")),
		mcp.WithString("application_date", mcp.Required(), mcp.Description("Date of the application in YYYY-MM-DD format")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Current status, e.g. 'Applied' or 'Interview Scheduled'")),
	), common.InstrumentedToolHandler(ToolAddApplication, sc, companySummary, addApplicationHandler(sc)))

	s.AddTool(mcp.NewTool(ToolUpdateStatus,
		mcp.WithDescription("Update the status of an existing application, identified by job title and company. "+
			"The first matching row is updated."),
		mcp.WithString("job_title", mcp.Required(), mcp.Description("The role of the existing application")),
		mcp.WithString("company", mcp.Required(), mcp.Description("The company of the existing application")),
		mcp.WithString("new_status", mcp.Required(), mcp.Description("The new status, e.g. 'Interview Scheduled'")),
	), common.InstrumentedToolHandler(ToolUpdateStatus, sc, companySummary, updateStatusHandler(sc)))

	return nil
}

func companySummary(args map[string]any) string {
	return common.StringArg(args, "company")
}

func runPipelineHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := sc.Pipeline(ctx)
		if err != nil {
			return toolError("Pipeline unavailable", err), nil
		}

		report, err := p.Run(ctx)
		if err != nil {
			msg := "Pipeline run failed"
			if errors.Is(err, pipeline.ErrIncompleteRun) {
				msg = "Pipeline run incomplete, the next run will retry"
			}
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s\n%s", msg, describe(err), report.Summary())), nil
		}
		return mcp.NewToolResultText("Pipeline run complete: " + report.Summary()), nil
	}
}

func addApplicationHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		// Blank values are passed through so the validator reports which
		// field is invalid.
		role := common.StringArg(args, "job_title")
		company := common.StringArg(args, "company")
		date := common.StringArg(args, "application_date")
		status := common.StringArg(args, "status")

		// Reject bad input before the tracker is built, since building it
		// refreshes the token and may create the spreadsheet.
		if err := sheets.ValidateApplication(role, company, date, status); err != nil {
			return toolError("Failed to add application", err), nil
		}

		tracker, err := sc.Tracker(ctx)
		if err != nil {
			return toolError("Spreadsheet unavailable", err), nil
		}
		if err := tracker.AddApplication(ctx, role, company, date, status); err != nil {
			return toolError("Failed to add application", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added new application for %s at %s.", role, company)), nil
	}
}

func updateStatusHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		role := common.StringArg(args, "job_title")
		company := common.StringArg(args, "company")
		newStatus := common.StringArg(args, "new_status")

		if err := sheets.ValidateStatusUpdate(role, company, newStatus); err != nil {
			return toolError("Failed to update application status", err), nil
		}

		tracker, err := sc.Tracker(ctx)
		if err != nil {
			return toolError("Spreadsheet unavailable", err), nil
		}
		if err := tracker.UpdateStatus(ctx, role, company, newStatus); err != nil {
			return toolError("Failed to update application status", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Updated status to '%s' for %s at %s.", newStatus, role, company)), nil
	}
}

func queryEmailsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := common.RequiredString(request.GetArguments(), "question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		querier, err := sc.Querier(ctx)
		if err != nil {
			return toolError("Email search unavailable", err), nil
		}
		answer, err := querier.Query(ctx, question)
		if err != nil {
			return toolError("Failed to query emails", err), nil
		}
		return mcp.NewToolResultText(answer), nil
	}
}

func toolError(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(prefix + ": " + describe(err))
}

// describe renders err for the agent, adding what to do about the error
// kinds a user can fix.
func describe(err error) string {
	switch {
	case errors.Is(err, jobs.ErrAuth):
		return err.Error() + ". Re-authorize with 'applytrack auth url' and 'applytrack auth save <code>', or check OPENAI_API_KEY."
	case jobs.IsNotFound(err):
		return err.Error() + ". Use add_application to create it."
	case jobs.IsValidation(err):
		return "invalid input: " + err.Error()
	case errors.Is(err, pipeline.ErrRunInProgress):
		return err.Error() + "; try again when it has finished."
	default:
		return err.Error()
	}
}
