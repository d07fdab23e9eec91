package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

// HTTPServer exposes the MCP server over streamable HTTP next to the
// health probes.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
}

// NewHTTPServer mounts mcpSrv at MCPEndpoint.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, addr string) *HTTPServer {
	health := NewHealthChecker(sc)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath(MCPEndpoint)))
	health.RegisterHealthEndpoints(mux)

	return &HTTPServer{
		health: health,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           instrumentHTTP(sc, mux),
			ReadHeaderTimeout: 10 * time.Second,
			// No write deadline: run_pipeline can take minutes.
			IdleTimeout: 120 * time.Second,
		},
	}
}

// Handler returns the instrumented routes.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown.
func (s *HTTPServer) Start() error {
	slog.Info("starting MCP server", "transport", "streamable-http", "addr", s.httpServer.Addr, "endpoint", MCPEndpoint)
	return s.httpServer.ListenAndServe()
}

// Shutdown marks the server not ready and drains connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrumentHTTP records every request in the HTTP metrics. Paths are
// reported as routed so unknown URLs do not create new series.
func instrumentHTTP(sc *ServerContext, next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		_, pattern := next.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, pattern, rec.status, time.Since(start))
	})
}
