package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/meridianhq/gatehouse/pkg/auth"
	"github.com/meridianhq/gatehouse/pkg/contextkeys"
	"github.com/meridianhq/gatehouse/pkg/observability"
)

const bearerPrefix = "Bearer "

// TokenVerifier resolves a bearer credential to a principal.
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// SessionChecker reports whether a live session exists for a principal.
type SessionChecker interface {
	Exists(ctx context.Context, principalID int64) (bool, error)
}

// Authenticator is the authentication stage. It extracts the bearer
// credential, verifies it, confirms session liveness against the
// registry, and attaches the principal to the request context. On any
// failure it short-circuits with an envelope response and the inner
// handler is never invoked.
type Authenticator struct {
	verifier TokenVerifier
	sessions SessionChecker
	logger   *observability.Logger
	metrics  *observability.AuthMetrics
}

// NewAuthenticator creates the authentication stage. metrics may be nil.
func NewAuthenticator(verifier TokenVerifier, sessions SessionChecker, logger *observability.Logger, metrics *observability.AuthMetrics) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler wraps the inner handler with authentication.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := a.authenticate(r)
		if err != nil {
			a.observeFailure(r, err)
			Failure(err.Envelope()).Resolve(w, r)
			return
		}
		Pending(next).Resolve(w, authed)
	})
}

// authenticate runs the credential and liveness checks and returns the
// request with the principal attached. The session lookup is a bounded
// synchronous wait on the registry, driven by the request context so a
// dropped connection cancels the in-flight I/O; nothing is attached to
// the context after cancellation.
func (a *Authenticator) authenticate(r *http.Request) (*http.Request, *auth.Error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, auth.E(auth.KindMissingCredential)
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return nil, auth.E(auth.KindMissingCredential)
	}

	p, err := a.verifier.Verify(token)
	if err != nil {
		return nil, auth.Wrap(auth.KindOf(err), err)
	}

	ctx := r.Context()
	alive, err := a.sessions.Exists(ctx, p.ID)
	if err != nil {
		if a.metrics != nil {
			a.metrics.SessionLookupsTotal.WithLabelValues("error").Inc()
		}
		return nil, auth.Wrap(auth.KindAdapterUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, auth.Wrap(auth.KindAdapterUnavailable, err)
	}
	if !alive {
		if a.metrics != nil {
			a.metrics.SessionLookupsTotal.WithLabelValues("miss").Inc()
		}
		return nil, auth.E(auth.KindSessionExpired)
	}
	if a.metrics != nil {
		a.metrics.SessionLookupsTotal.WithLabelValues("hit").Inc()
	}

	// Echo the presented credential back into the principal so handlers
	// can reference the exact token that authenticated the request.
	p.Token = token
	return r.WithContext(contextkeys.WithPrincipal(ctx, p)), nil
}

func (a *Authenticator) observeFailure(r *http.Request, err *auth.Error) {
	if a.metrics != nil {
		a.metrics.AuthnFailuresTotal.WithLabelValues(err.Kind.String()).Inc()
	}
	a.logger.
		WithError(err).
		WithField("kind", err.Kind.String()).
		WithField("path", r.URL.Path).
		WithField("request_id", contextkeys.RequestIDFrom(r.Context())).
		Warn("authentication failed")
}
