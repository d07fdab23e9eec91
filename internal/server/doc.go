// Package server holds the runtime around the MCP tools: the
// ServerContext with lazily built pipeline, tracker and retrieval
// components, the streamable HTTP transport, health probes, and the
// Prometheus metrics listener.
package server
