package middleware

import "net/http"

// Middleware wraps an inner handler without knowing its concrete type.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware so the first argument is the outermost stage.
// The order is fixed at registration time and never changes at runtime.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
