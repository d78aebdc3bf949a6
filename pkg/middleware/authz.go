package middleware

import (
	"net/http"

	"github.com/meridianhq/gatehouse/pkg/auth"
	"github.com/meridianhq/gatehouse/pkg/contextkeys"
	"github.com/meridianhq/gatehouse/pkg/observability"
	"github.com/meridianhq/gatehouse/pkg/policy"
)

// Authorizer is the authorization stage. It holds only the route's
// immutable requirement and is stateless across requests: one instance is
// shared by every request matching the route.
type Authorizer struct {
	evaluator   *policy.Evaluator
	requirement policy.Requirement
	logger      *observability.Logger
	metrics     *observability.AuthMetrics
}

// NewAuthorizer creates the authorization stage for one route's
// requirement. metrics may be nil.
func NewAuthorizer(evaluator *policy.Evaluator, requirement policy.Requirement, logger *observability.Logger, metrics *observability.AuthMetrics) *Authorizer {
	return &Authorizer{
		evaluator:   evaluator,
		requirement: requirement,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handler wraps the inner handler with authorization. The stage must run
// after authentication; a missing principal is a wiring bug, not a
// request error, and panics so the fault boundary reports it loudly.
func (a *Authorizer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := contextkeys.PrincipalFrom(r.Context())
		if p == nil {
			panic("middleware: authorizer ran without an authenticated principal")
		}

		outcome := a.evaluator.Evaluate(p, a.requirement)
		if !outcome.Allowed {
			if a.metrics != nil {
				a.metrics.AuthzDenialsTotal.Inc()
			}
			a.logger.
				WithField("principal_id", p.ID).
				WithField("path", r.URL.Path).
				WithField("reason", outcome.Reason).
				Warn("authorization denied")
			Failure(auth.E(auth.KindForbidden).Envelope()).Resolve(w, r)
			return
		}
		Pending(next).Resolve(w, r)
	})
}
