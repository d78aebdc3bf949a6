// Package policy implements the RBAC evaluation engine.
//
// A Requirement pairs an optional permission clause and an optional role
// clause, each with ALL/ANY semantics, joined by a top-level combinator
// when both are present. Requirements are built at route-registration
// time and shared read-only across requests.
//
// Evaluation is pure and in-memory: no I/O, no hidden state, safe to call
// from many requests concurrently. The principal whose ID matches the
// configured superadmin identifier passes every check.
package policy
