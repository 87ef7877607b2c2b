// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cadenza-music/cadenza/internal/gateway"
	"github.com/cadenza-music/cadenza/internal/identity"
)

/*
TestClassify_FailClosedDefault verifies that any path absent from the route
table is protected, never public.
*/
func TestClassify_FailClosedDefault(t *testing.T) {
	unlisted := []string{
		"/totally-new-page",
		"/internal",
		"/api/v1/orders",
		"/lyricist", // shares a prefix string with /lyrics but is a different segment
		"/artistry",
		"/admin2",
	}

	for _, path := range unlisted {
		t.Run(path, func(t *testing.T) {
			class := gateway.Classify(path)
			assert.Equal(t, gateway.RouteProtected, class.Kind)
		})
	}
}

/*
TestClassify_PublicSurface checks the public content pages.
*/
func TestClassify_PublicSurface(t *testing.T) {
	public := []string{
		"/",
		"/lyrics",
		"/lyrics/some-song",
		"/chords/some-song",
		"/artists",
		"/artists/some-artist",
		"/events",
		"/news",
		"/store",
		"/studio",
		"/about",
		"/contact",
		"/terms",
		"/search",
		"/health",
		"/ready",
		"/api/v1/lyrics",
		"/api/v1/lyrics/some-song",
	}

	for _, path := range public {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, gateway.RoutePublic, gateway.Classify(path).Kind)
		})
	}
}

/*
TestClassify_AuthOnly checks the sign-in entry points.
*/
func TestClassify_AuthOnly(t *testing.T) {
	authOnly := []string{
		"/login",
		"/register",
		"/password-reset",
		"/api/v1/auth",
		"/api/v1/auth/attempts",
	}

	for _, path := range authOnly {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, gateway.RouteAuthOnly, gateway.Classify(path).Kind)
		})
	}
}

/*
TestClassify_Protected checks the any-role authenticated pages.
*/
func TestClassify_Protected(t *testing.T) {
	protected := []string{
		"/dashboard",
		"/checkout",
		"/downloads",
		"/downloads/order-123",
	}

	for _, path := range protected {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, gateway.RouteProtected, gateway.Classify(path).Kind)
		})
	}
}

/*
TestClassify_RoleRestricted verifies the back-office role sets.
*/
func TestClassify_RoleRestricted(t *testing.T) {
	tests := []struct {
		path  string
		roles []identity.Role
	}{
		{"/admin", []identity.Role{identity.RoleAdmin}},
		{"/admin/leads", []identity.Role{identity.RoleAdmin}},
		{"/editor", []identity.Role{identity.RoleAdmin, identity.RoleEditor}},
		{"/editor/drafts/42", []identity.Role{identity.RoleAdmin, identity.RoleEditor}},
		{"/artist", []identity.Role{identity.RoleAdmin, identity.RoleArtist}},
		{"/artist/releases", []identity.Role{identity.RoleAdmin, identity.RoleArtist}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			class := gateway.Classify(tt.path)
			assert.Equal(t, gateway.RouteRoleRestricted, class.Kind)
			assert.Equal(t, tt.roles, class.RequiredRoles)
		})
	}
}

/*
TestClassify_SegmentBoundaries ensures prefixes match whole segments: the
restricted /artist area must not swallow the public /artists listing, and the
root rule must match only the home page.
*/
func TestClassify_SegmentBoundaries(t *testing.T) {
	assert.Equal(t, gateway.RoutePublic, gateway.Classify("/artists").Kind)
	assert.Equal(t, gateway.RoutePublic, gateway.Classify("/artists/big-band").Kind)
	assert.Equal(t, gateway.RouteRoleRestricted, gateway.Classify("/artist").Kind)
	assert.Equal(t, gateway.RouteRoleRestricted, gateway.Classify("/artist/payouts").Kind)

	// "/" must not make everything public.
	assert.Equal(t, gateway.RoutePublic, gateway.Classify("/").Kind)
	assert.Equal(t, gateway.RouteProtected, gateway.Classify("/anything-else").Kind)
}

/*
TestRouteClass_Allows checks set-based role membership.
*/
func TestRouteClass_Allows(t *testing.T) {
	editorArea := gateway.Classify("/editor")

	assert.True(t, editorArea.Allows(identity.RoleAdmin))
	assert.True(t, editorArea.Allows(identity.RoleEditor))
	assert.False(t, editorArea.Allows(identity.RoleArtist))
	assert.False(t, editorArea.Allows(identity.RoleCustomer))
}
