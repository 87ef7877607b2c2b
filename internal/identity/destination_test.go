// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cadenza-music/cadenza/internal/identity"
)

/*
TestDestinationFor_ReturnPathWins verifies that an explicit return path is
returned verbatim for every role.
*/
func TestDestinationFor_ReturnPathWins(t *testing.T) {
	roles := []identity.Role{
		identity.RoleAdmin,
		identity.RoleEditor,
		identity.RoleArtist,
		identity.RoleCustomer,
		identity.Role("something-unknown"),
	}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			got := identity.DestinationFor(role, "/admin/leads?tab=open")
			assert.Equal(t, "/admin/leads?tab=open", got)
		})
	}
}

/*
TestDestinationFor_RoleHomes checks the role-to-home mapping and its
idempotence: the same role always lands in the same place.
*/
func TestDestinationFor_RoleHomes(t *testing.T) {
	tests := []struct {
		role identity.Role
		want string
	}{
		{identity.RoleAdmin, identity.PathAdminHome},
		{identity.RoleEditor, identity.PathEditorHome},
		{identity.RoleArtist, identity.PathArtistHome},
		{identity.RoleCustomer, identity.PathDashboard},
		{identity.Role(""), identity.PathDashboard},
		{identity.Role("made-up"), identity.PathDashboard},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, identity.DestinationFor(tt.role, ""))
			// Idempotent: a second call gives the same answer.
			assert.Equal(t, tt.want, identity.DestinationFor(tt.role, ""))
		})
	}
}

/*
TestParseRole_NeverEscalates verifies that unknown role strings fold to
customer, the least privileged role.
*/
func TestParseRole_NeverEscalates(t *testing.T) {
	assert.Equal(t, identity.RoleAdmin, identity.ParseRole("admin"))
	assert.Equal(t, identity.RoleEditor, identity.ParseRole("editor"))
	assert.Equal(t, identity.RoleArtist, identity.ParseRole("artist"))
	assert.Equal(t, identity.RoleCustomer, identity.ParseRole("customer"))

	for _, raw := range []string{"", "root", "Admin ", "superuser"} {
		assert.Equal(t, identity.RoleCustomer, identity.ParseRole(raw), "raw %q", raw)
	}
}
