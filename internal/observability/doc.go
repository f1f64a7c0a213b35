// Package observability groups the worker's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog JSON logger, run-scoped loggers, error sanitizing
//   - metrics: Prometheus collectors for pipeline runs and stages
//   - tracing: OpenTelemetry tracer provider and span helpers
package observability
