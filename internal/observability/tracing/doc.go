// Package tracing wires OpenTelemetry into the worker.
//
// Init installs a global tracer provider; each pipeline stage then opens a
// child span of the run span:
//
//	shutdown := tracing.Init(tracing.Config{ServiceName: "news-notifier", SampleRatio: 1})
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.ingest")
//	defer span.End()
package tracing
