// Package logging holds the slog conventions used across applytrack:
// logger construction from CLI flags, attribute keys, and helpers that
// keep attribute naming consistent.
//
//	logger := logging.WithOperation(slog.Default(), "pipeline.run")
//	logger.Info("run finished", logging.Status(logging.StatusSuccess))
//
// Mail bodies are never logged. Subjects are truncated.
package logging
