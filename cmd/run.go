package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, classify and archive new emails once",
		Long: `Fetch the emails received since the last successful run (or the last few
days on the first run), classify each one and write the raw and classified
artifacts under the data directory. The fetch watermark only advances when
every message was archived.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Pipeline.Workers = workers
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a := newApp(cfg, logger, nil)
			defer a.Close()

			p, err := a.newPipeline(ctx)
			if err != nil {
				return err
			}

			report, err := p.Run(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			if err != nil {
				return fmt.Errorf("pipeline run failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Number of messages processed concurrently")
	return cmd
}
