// Package api wires the auth endpoints onto a mux router and declares the
// access requirements guarded routes carry.
package api
