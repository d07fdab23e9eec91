package cmd

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsReference(t *testing.T) {
	markdown, err := toolsReference()
	require.NoError(t, err)

	for _, name := range []string{"run_pipeline", "add_application", "update_application_status", "query_emails"} {
		assert.Contains(t, markdown, "### "+name+"\n")
	}
	assert.Contains(t, markdown, "- `application_date` (required): Date of the application in YYYY-MM-DD format")

	// Tools are listed alphabetically.
	assert.Less(t, strings.Index(markdown, "### add_application"), strings.Index(markdown, "### query_emails"))
}

func TestGenerateToolMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		contains []string
		excludes []string
	}{
		{
			name:     "no arguments",
			tool:     mcp.NewTool("run_pipeline", mcp.WithDescription("Run it.")),
			contains: []string{"### run_pipeline\n\n", "Run it.\n"},
			excludes: []string{"**Arguments:**"},
		},
		{
			name: "required and optional arguments",
			tool: mcp.NewTool("query_emails",
				mcp.WithString("question", mcp.Required(), mcp.Description("What to ask")),
				mcp.WithString("limit"),
			),
			contains: []string{
				"**Arguments:**\n",
				"- `question` (required): What to ask\n",
				"- `limit` (optional): string parameter\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generateToolMarkdown(tt.tool)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, got, e)
			}
		})
	}
}
