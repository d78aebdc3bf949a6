package auth

import "testing"

func testPrincipal() *Principal {
	return &Principal{
		ID:    7,
		Name:  "name",
		Roles: []string{"admin", "user"},
		Perms: []string{"user:me", "token:logout"},
	}
}

func TestHasPerms(t *testing.T) {
	p := testPrincipal()

	if !p.HasAnyPerm("user:me") {
		t.Error("expected principal to have user:me")
	}
	if p.HasAnyPerm("user:me1") {
		t.Error("did not expect principal to have user:me1")
	}
	if !p.HasAllPerms("user:me", "token:logout") {
		t.Error("expected principal to have both permissions")
	}
	if p.HasAllPerms("user:me", "menu:remove") {
		t.Error("did not expect principal to have menu:remove")
	}
}

func TestHasRoles(t *testing.T) {
	p := testPrincipal()

	if !p.HasAnyRole("user") {
		t.Error("expected principal to have role user")
	}
	if p.HasAnyRole("api") {
		t.Error("did not expect principal to have role api")
	}
	if !p.HasAllRoles("admin") {
		t.Error("expected principal to have role admin")
	}
	if p.HasAllRoles("admin", "api") {
		t.Error("did not expect principal to have role api")
	}
}

func TestNilSetsMeanHasNone(t *testing.T) {
	p := &Principal{ID: 9}

	if p.HasAnyRole("admin") {
		t.Error("nil role set must behave as empty")
	}
	if p.HasAnyPerm("user:me") {
		t.Error("nil perm set must behave as empty")
	}
	// All-of over an empty required list is vacuously true.
	if !p.HasAllRoles() {
		t.Error("empty required role list must be satisfied")
	}
	if !p.HasAllPerms() {
		t.Error("empty required perm list must be satisfied")
	}
}
