// Package metrics provides the Prometheus collectors of the notification pipeline.
//
// Collectors are registered with the default registry at init and exposed by
// the worker's /metrics endpoint:
//
//	start := time.Now()
//	stats, err := ingester.RunIngestion(ctx)
//	metrics.RecordStageDuration("ingest", time.Since(start))
//	metrics.RecordIngestion("TheNewsAPI", stats.Fetched, stats.Inserted, stats.Skipped, stats.Duplicated, stats.Failed)
package metrics
