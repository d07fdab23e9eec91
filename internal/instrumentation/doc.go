// Package instrumentation wires OpenTelemetry metrics and tracing for
// applytrack.
//
// # Metrics
//
// Pipeline:
//   - pipeline_runs_total: runs by status (success, error, partial)
//   - pipeline_run_duration_seconds
//   - pipeline_messages_total: processed messages by outcome
//   - classifications_total, classification_duration_seconds
//
// Google APIs:
//   - google_api_operations_total: calls by service, operation, status
//   - google_api_operation_duration_seconds
//
// Server:
//   - http_requests_total, http_request_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// Metrics are exported through Prometheus by default and served on the
// metrics port of the serve command.
//
// # Tracing
//
// Spans are created for pipeline runs, classifications, MCP tool
// invocations (tool.<name>) and Google API calls
// (google.<service>.<operation>). Tracing is off unless TRACING_EXPORTER
// names an exporter.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout
//   - TRACING_EXPORTER: otlp, stdout or none
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default 0.1)
//   - OTEL_SERVICE_NAME (default applytrack)
//   - AUDIT_LOGGING_ENABLED (default true)
package instrumentation
