package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/applytrack/internal/sheets"
)

func newSheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Edit the job application spreadsheet",
		Long: `Add or update rows of the "Job Applications" sheet. The spreadsheet is
created on first use and its id stored in the data directory.`,
	}
	cmd.AddCommand(newSheetAddCmd(), newSheetUpdateCmd())
	return cmd
}

func newSheetAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <job-title> <company> <YYYY-MM-DD> <status>",
		Short: "Append a new application row",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sheets.ValidateApplication(args[0], args[1], args[2], args[3]); err != nil {
				return err
			}
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a := newApp(cfg, logger, nil)
			defer a.Close()

			tracker, err := a.newTracker(cmd.Context())
			if err != nil {
				return err
			}
			if err := tracker.AddApplication(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added new application for %s at %s (spreadsheet %s).\n", args[0], args[1], tracker.SpreadsheetID())
			return nil
		},
	}
}

func newSheetUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <job-title> <company> <new-status>",
		Short: "Change the status of an existing application",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sheets.ValidateStatusUpdate(args[0], args[1], args[2]); err != nil {
				return err
			}
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a := newApp(cfg, logger, nil)
			defer a.Close()

			tracker, err := a.newTracker(cmd.Context())
			if err != nil {
				return err
			}
			if err := tracker.UpdateStatus(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated status to '%s' for %s at %s (spreadsheet %s).\n", args[2], args[0], args[1], tracker.SpreadsheetID())
			return nil
		},
	}
}
