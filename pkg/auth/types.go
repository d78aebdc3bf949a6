package auth

import "time"

// Principal is the authenticated identity attached to a request.
// Role and permission sets are immutable once the principal is bound to a
// request; a fresh Principal is built per authenticated request and
// discarded when the request completes.
type Principal struct {
	ID        int64      `json:"id"`
	Account   string     `json:"account,omitempty"`
	Name      string     `json:"name,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	Perms     []string   `json:"perms,omitempty"`
	Token     string     `json:"token,omitempty"`
	CreatorID *int64     `json:"creator_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdaterID *int64     `json:"updater_id,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RoleSet returns the principal's roles as a set. A nil role slice yields
// an empty set, never an error.
func (p *Principal) RoleSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		set[r] = struct{}{}
	}
	return set
}

// PermSet returns the principal's permissions as a set.
func (p *Principal) PermSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Perms))
	for _, perm := range p.Perms {
		set[perm] = struct{}{}
	}
	return set
}

// HasAllRoles reports whether the principal holds every listed role.
func (p *Principal) HasAllRoles(roles ...string) bool {
	set := p.RoleSet()
	for _, r := range roles {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

// HasAnyRole reports whether the principal holds at least one listed role.
func (p *Principal) HasAnyRole(roles ...string) bool {
	set := p.RoleSet()
	for _, r := range roles {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// HasAllPerms reports whether the principal holds every listed permission.
func (p *Principal) HasAllPerms(perms ...string) bool {
	set := p.PermSet()
	for _, perm := range perms {
		if _, ok := set[perm]; !ok {
			return false
		}
	}
	return true
}

// HasAnyPerm reports whether the principal holds at least one listed
// permission.
func (p *Principal) HasAnyPerm(perms ...string) bool {
	set := p.PermSet()
	for _, perm := range perms {
		if _, ok := set[perm]; ok {
			return true
		}
	}
	return false
}
