// Package resilience provides fault tolerance helpers for the worker's
// external dependencies.
//
//   - circuitbreaker: gobreaker wrappers for the feed clients and the SMTP relay
//   - retry: exponential backoff for database startup and transient SMTP replies
//
// Feed pages are attempted once per run. A failed fetch is recorded on the
// source and picked up by the next scheduled run.
package resilience
