package policy

import (
	"fmt"
	"strings"

	"github.com/meridianhq/gatehouse/pkg/auth"
)

// Combinator selects conjunction or disjunction semantics for a set of
// required roles or permissions.
type Combinator int

const (
	// Any requires at least one member of the declared set.
	Any Combinator = iota
	// All requires every member of the declared set.
	All
)

// String returns the combinator's identifier.
func (c Combinator) String() string {
	if c == All {
		return "all"
	}
	return "any"
}

// Clause is one sub-requirement: a non-empty set of identifiers and the
// combinator applied to it.
type Clause struct {
	Values     []string
	Combinator Combinator
}

// satisfiedBy evaluates the clause against a membership set. All over an
// empty declared list is vacuously true; Any over an empty list is false.
func (c *Clause) satisfiedBy(set map[string]struct{}) bool {
	if c.Combinator == All {
		for _, v := range c.Values {
			if _, ok := set[v]; !ok {
				return false
			}
		}
		return true
	}
	for _, v := range c.Values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// Requirement is a declarative access rule bound to a route at
// registration time. It is immutable and shared read-only across all
// requests matching the route. An empty Requirement always allows.
type Requirement struct {
	Permissions *Clause
	Roles       *Clause
	// Combinator joins the two clauses when both are present.
	Combinator Combinator
}

// RequirePermissions declares a permission-only requirement.
func RequirePermissions(c Combinator, perms ...string) Requirement {
	return Requirement{Permissions: &Clause{Values: perms, Combinator: c}}
}

// RequireRoles declares a role-only requirement.
func RequireRoles(c Combinator, roles ...string) Requirement {
	return Requirement{Roles: &Clause{Values: roles, Combinator: c}}
}

// RequireBoth declares a requirement with both clauses, joined by the top
// combinator.
func RequireBoth(top Combinator, perms Clause, roles Clause) Requirement {
	return Requirement{
		Permissions: &perms,
		Roles:       &roles,
		Combinator:  top,
	}
}

// Empty reports whether the requirement declares nothing.
func (r Requirement) Empty() bool {
	return r.Permissions == nil && r.Roles == nil
}

// String renders the requirement for logs and deny reasons.
func (r Requirement) String() string {
	if r.Empty() {
		return "none"
	}
	var parts []string
	if r.Permissions != nil {
		parts = append(parts, fmt.Sprintf("perms(%s: %s)", r.Permissions.Combinator, strings.Join(r.Permissions.Values, ",")))
	}
	if r.Roles != nil {
		parts = append(parts, fmt.Sprintf("roles(%s: %s)", r.Roles.Combinator, strings.Join(r.Roles.Values, ",")))
	}
	if len(parts) == 2 {
		return strings.Join(parts, " "+r.Combinator.String()+" ")
	}
	return parts[0]
}

// Outcome is the result of one policy evaluation. Produced fresh per call
// and never retained.
type Outcome struct {
	Allowed bool
	Reason  string
}

// Allow builds an allowing outcome.
func Allow(reason string) Outcome {
	return Outcome{Allowed: true, Reason: reason}
}

// Deny builds a denying outcome.
func Deny(reason string) Outcome {
	return Outcome{Allowed: false, Reason: reason}
}

// Evaluator decides whether a principal satisfies a requirement. It is
// pure and safe for concurrent use; the only state is the configured
// superadmin identifier.
type Evaluator struct {
	superadminID int64
}

// NewEvaluator creates an evaluator. Principals whose ID equals
// superadminID bypass every requirement. This is a deliberate, documented
// bypass for the bootstrap account.
func NewEvaluator(superadminID int64) *Evaluator {
	return &Evaluator{superadminID: superadminID}
}

// Evaluate checks the principal against the requirement. Missing principal
// data counts as "has none" and evaluates to a deny, never an error.
func (e *Evaluator) Evaluate(p *auth.Principal, req Requirement) Outcome {
	if p.ID == e.superadminID {
		return Allow("superadmin")
	}
	if req.Empty() {
		return Allow("no requirement declared")
	}

	switch {
	case req.Permissions != nil && req.Roles != nil:
		permOK := req.Permissions.satisfiedBy(p.PermSet())
		roleOK := req.Roles.satisfiedBy(p.RoleSet())
		var ok bool
		if req.Combinator == All {
			ok = permOK && roleOK
		} else {
			ok = permOK || roleOK
		}
		if ok {
			return Allow("requirement satisfied")
		}
	case req.Permissions != nil:
		if req.Permissions.satisfiedBy(p.PermSet()) {
			return Allow("permission requirement satisfied")
		}
	default:
		if req.Roles.satisfiedBy(p.RoleSet()) {
			return Allow("role requirement satisfied")
		}
	}
	return Deny("requirement not satisfied: " + req.String())
}
