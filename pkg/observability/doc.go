// Package observability provides structured logging, Prometheus metrics
// for the guard chain, and graceful shutdown coordination.
package observability
