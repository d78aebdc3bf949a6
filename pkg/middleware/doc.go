// Package middleware implements the request guard chain: fault boundary,
// authentication, and authorization stages composed around an arbitrary
// inner handler.
//
// # Stage order
//
// Stages execute in a fixed, statically declared order per route:
//
//	fault boundary -> authentication -> authorization -> handler
//
// The order is part of the route's configuration and never changes at
// runtime. Each stage either short-circuits with an envelope response or
// passes the request through unchanged; Result models that two-state
// outcome so a failing stage never constructs the inner handler path.
//
// # Concurrency
//
// Stages hold no per-request state. Each request owns its principal
// exclusively; route requirements are immutable and shared read-only.
// The fault boundary isolates exactly one request: it runs the inner
// chain on a dedicated goroutine, blocks the serving worker for the
// result, and converts a panic into the application's fallback response
// without disturbing other in-flight requests.
package middleware
