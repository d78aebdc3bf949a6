// Package store provides postgres-backed principal persistence used by
// the login and profile endpoints.
package store
