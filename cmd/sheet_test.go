package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/jobs"
)

func TestSheetCmds_RejectInvalidArgsBeforeLoading(t *testing.T) {
	// An unreadable config path proves validation runs before anything is
	// loaded or built.
	rootFlags.configPath = "/nonexistent/applytrack.yaml"
	t.Cleanup(func() { rootFlags.configPath = "" })

	tests := []struct {
		name  string
		build func() *cobra.Command
		args  []string
		field string
	}{
		{name: "add with empty title", build: newSheetAddCmd, args: []string{"", "Google", "2025-01-09", "Applied"}, field: "job_title"},
		{name: "add with bad date", build: newSheetAddCmd, args: []string{"SWE", "Google", "Jan 9", "Applied"}, field: "application_date"},
		{name: "update with blank status", build: newSheetUpdateCmd, args: []string{"SWE", "Google", " "}, field: "new_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.build()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			var ve *jobs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
