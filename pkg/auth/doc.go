// Package auth defines the authenticated principal, the failure taxonomy
// shared by the middleware stages, and the JWT token manager.
//
// # Principal
//
// A Principal is built once per authenticated request, attached to the
// request context, and discarded when the request completes. Its role and
// permission sets are treated as immutable for the request's lifetime.
// Nil sets mean "has none" and never cause errors.
//
// # Failure taxonomy
//
// Every authentication and authorization failure is an *Error with a Kind
// that determines the HTTP status and the generic user-facing message.
// Wrapped causes stay server-side:
//
//	if err != nil {
//	    return auth.Wrap(auth.KindAdapterUnavailable, err)
//	}
//
// # Tokens
//
// TokenManager issues HS256 JWTs whose claims embed the full principal,
// so verification recovers the identity without a store lookup. Session
// liveness is a separate concern handled by the session registry.
package auth
