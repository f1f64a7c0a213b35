// Package logging provides structured logging utilities with context propagation.
//
// Every pipeline run carries a run ID. Loggers derived with WithRunID attach it
// to each record so that one run can be followed across stages:
//
//	logger := logging.NewLogger()
//	ctx = logging.WithLogger(ctx, logging.WithRunID(logger, runID))
//	logging.FromContext(ctx).Info("ingestion finished", slog.Int("inserted", n))
//
// Errors that may contain credentials must pass through SanitizeError before
// they are logged or persisted.
package logging
