package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/applytrack/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize applytrack to use your Google account",
		Long: `Authorize applytrack for Gmail (read) and Google Sheets access.

  1. applytrack auth url          print the consent URL
  2. open it and approve access
  3. applytrack auth save <code>  store the token

The token is cached in the configured google.token_file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the Google consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a := newApp(cfg, logger, nil)
			gcfg := a.googleConfig()
			if gcfg.ClientID == "" {
				return fmt.Errorf("google.client_id is not configured (set APPLYTRACK_GOOGLE_CLIENT_ID)")
			}
			if google.HasToken(gcfg) {
				logger.Info("a Google token is already cached; saving a new one replaces it")
			}
			fmt.Fprintln(cmd.OutOrStdout(), google.AuthURL(gcfg))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save <code>",
		Short: "Exchange an authorization code and cache the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a := newApp(cfg, logger, nil)
			if err := google.SaveToken(cmd.Context(), a.googleConfig(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
			return nil
		},
	})

	return cmd
}
