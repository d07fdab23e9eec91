package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/applytrack/internal/config"
	"github.com/teemow/applytrack/internal/logging"
)

// rootCmd represents the base command for the applytrack application
var rootCmd = &cobra.Command{
	Use:   "applytrack",
	Short: "Tracks job applications from your Gmail inbox",
	Long: `applytrack reads recent emails from Gmail, classifies each one as a job
application update or as irrelevant, archives the results locally and keeps
a Google Sheets tracker of your applications.

It can run as:
  - A standalone CLI tool (default: one pipeline run)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var rootFlags struct {
	configPath string
	dataDir    string
	logLevel   string
	logFormat  string
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "applytrack version %s\n" .Version}}`)

	// If no subcommand is provided, run the pipeline once
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to the config file (default: "+config.DefaultPath()+")")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Directory for archived emails and state files")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSheetCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}

// loadConfig reads the config file and environment, then applies the
// persistent flags that were set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = rootFlags.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = rootFlags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = rootFlags.logFormat
	}

	// Logs always go to stderr; stdout carries command output or the
	// stdio MCP stream.
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
