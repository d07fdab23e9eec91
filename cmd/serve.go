package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/applytrack/internal/config"
	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/logging"
	"github.com/teemow/applytrack/internal/server"
	"github.com/teemow/applytrack/internal/tools/tracker_tools"
)

// Transports.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	var (
		transport      string
		httpAddr       string
		metricsAddr    string
		metricsEnabled bool
		readOnly       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server so an AI assistant can run the
pipeline, query archived emails and maintain the application spreadsheet.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on --http-addr at /mcp

With streamable-http, Prometheus metrics are served on --metrics-addr and
health probes on /healthz and /readyz.

Use --read-only to leave out the spreadsheet-writing tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("transport") {
				cfg.Server.Transport = transport
			}
			if flags.Changed("http-addr") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if flags.Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if flags.Changed("metrics") {
				cfg.Server.MetricsEnabled = metricsEnabled
			}
			return runServe(cfg, logger, readOnly)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Serve Prometheus metrics (for streamable-http transport)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Do not register tools that write to the spreadsheet")

	return cmd
}

func runServe(cfg *config.Config, logger *slog.Logger, readOnly bool) error {
	switch cfg.Server.Transport {
	case transportStdio, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Server.Transport)
	}
	slog.SetDefault(logger)

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	a := newApp(cfg, logger, provider.Metrics())
	defer a.Close()

	serverContext := server.NewServerContext(shutdownCtx, serverOptions(shutdownCtx, a, provider))
	defer func() { _ = serverContext.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("applytrack", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := tracker_tools.RegisterTrackerTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register tracker tools: %w", err)
	}

	if cfg.Server.Transport == transportStdio {
		return runStdioServer(mcpSrv)
	}
	return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider, logger)
}

// serverOptions binds the tool components to a's builders. The email index
// watches the archive until ctx is done.
func serverOptions(ctx context.Context, a *app, provider *instrumentation.Provider) server.Options {
	return server.Options{
		NewPipeline: func(ctx context.Context) (server.PipelineRunner, error) {
			return a.newPipeline(ctx)
		},
		NewTracker: func(ctx context.Context) (server.ApplicationTracker, error) {
			return a.newTracker(ctx)
		},
		NewQuerier: func(context.Context) (server.EmailQuerier, error) {
			idx, err := a.newIndex()
			if err != nil {
				return nil, err
			}
			go func() {
				if err := idx.Watch(ctx); err != nil {
					a.logger.Warn("email index is not watching the archive, answers may be stale", logging.Err(err))
				}
			}()
			return idx, nil
		},
		Instrumentation: provider,
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) error {
	serverDone := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if cfg.Server.MetricsEnabled && provider.ServesPrometheus() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverDone <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	httpServer := server.NewHTTPServer(mcpSrv, sc, cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case runErr = <-serverDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	// Fail readiness and cancel running tools before draining.
	_ = sc.Shutdown()
	errs := []error{runErr, httpServer.Shutdown(shutdownCtx)}
	if metricsServer != nil {
		errs = append(errs, metricsServer.Shutdown(shutdownCtx))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
