package middleware

import (
	"net/http"

	"github.com/meridianhq/gatehouse/pkg/httputil"
)

// Result is a two-state computation produced by a middleware stage:
// either an already-known failure envelope, or a pending continuation
// into the rest of the chain. A failure resolves immediately without
// constructing or entering the inner handler path; exactly one state is
// active, and a failure never becomes pending.
type Result struct {
	failure *httputil.Envelope
	next    http.Handler
}

// Failure builds a result that resolves to the given envelope.
func Failure(env httputil.Envelope) Result {
	return Result{failure: &env}
}

// Pending builds a result that resolves by driving the inner handler.
func Pending(next http.Handler) Result {
	return Result{next: next}
}

// Resolve consumes the result exactly once. A failure writes its envelope
// and the inner handler is never invoked; a pending result delegates to
// the inner handler unchanged.
func (res Result) Resolve(w http.ResponseWriter, r *http.Request) {
	if res.failure != nil {
		_ = httputil.WriteEnvelope(w, *res.failure)
		return
	}
	res.next.ServeHTTP(w, r)
}

// Failed reports whether the result carries a short-circuit failure.
func (res Result) Failed() bool {
	return res.failure != nil
}
