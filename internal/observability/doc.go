// Package observability provides structured logging and metrics for the
// LLM dispatcher.
//
// This package implements:
//   - zap logger construction from configuration
//   - Request ID propagation through context.Context
//   - Prometheus counters and histograms for dispatches and attempts
package observability
