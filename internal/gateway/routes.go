// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

/*
Package gateway implements the request-boundary access control for Cadenza.

Every inbound request passes through exactly one [Gateway.Authorize] decision
before reaching a page or API handler. The gateway composes the session
resolver, the role lookup, and the static route table; pages never
re-implement access checks.
*/
package gateway

import (
	"sort"
	"strings"

	"github.com/cadenza-music/cadenza/internal/identity"
)

// # Route Classification

// RouteKind is the access-policy category of a URL path.
type RouteKind int

const (
	// RoutePublic is reachable with no principal at all.
	RoutePublic RouteKind = iota

	// RouteAuthOnly marks sign-in/registration entry points. They are
	// reachable whether anonymous or authenticated: a signed-in user may
	// deliberately re-authenticate, so the gateway never forces a redirect
	// away from them.
	RouteAuthOnly

	// RouteProtected requires a non-anonymous principal of any role.
	RouteProtected

	// RouteRoleRestricted requires a principal holding one of RequiredRoles.
	RouteRoleRestricted
)

// String returns the lowercase name of the kind, for logs and tests.
func (k RouteKind) String() string {
	switch k {
	case RoutePublic:
		return "public"
	case RouteAuthOnly:
		return "auth_only"
	case RouteProtected:
		return "protected"
	case RouteRoleRestricted:
		return "role_restricted"
	default:
		return "unknown"
	}
}

// RouteClass is the classification of one URL path.
type RouteClass struct {
	Kind RouteKind

	// RequiredRoles is non-empty only when Kind is RouteRoleRestricted.
	RequiredRoles []identity.Role
}

// Allows reports whether the given role satisfies the class's role requirement.
// Membership is set-based, not hierarchical: the table states every permitted
// role explicitly.
func (c RouteClass) Allows(role identity.Role) bool {
	for _, required := range c.RequiredRoles {
		if role == required {
			return true
		}
	}
	return false
}

// # The Route Table

// routeRule binds a path prefix to its classification. Prefixes match on
// whole path segments: "/artist" covers "/artist" and "/artist/releases" but
// never "/artists".
type routeRule struct {
	prefix string
	class  RouteClass
}

// routeTable is the bit-exact policy surface other teams depend on. Adding a
// new page means adding a row here; an unlisted path is PROTECTED by default,
// never public.
var routeTable = []routeRule{
	// Public content surface
	{"/", RouteClass{Kind: RoutePublic}},
	{"/lyrics", RouteClass{Kind: RoutePublic}},
	{"/chords", RouteClass{Kind: RoutePublic}},
	{"/artists", RouteClass{Kind: RoutePublic}},
	{"/events", RouteClass{Kind: RoutePublic}},
	{"/news", RouteClass{Kind: RoutePublic}},
	{"/store", RouteClass{Kind: RoutePublic}},
	{"/studio", RouteClass{Kind: RoutePublic}},
	{"/about", RouteClass{Kind: RoutePublic}},
	{"/contact", RouteClass{Kind: RoutePublic}},
	{"/terms", RouteClass{Kind: RoutePublic}},
	{"/search", RouteClass{Kind: RoutePublic}},

	// Infrastructure probes and the public API mirror
	{"/health", RouteClass{Kind: RoutePublic}},
	{"/ready", RouteClass{Kind: RoutePublic}},
	{"/api/v1/lyrics", RouteClass{Kind: RoutePublic}},

	// Authentication entry points
	{identity.PathLogin, RouteClass{Kind: RouteAuthOnly}},
	{"/register", RouteClass{Kind: RouteAuthOnly}},
	{"/password-reset", RouteClass{Kind: RouteAuthOnly}},
	{"/api/v1/auth", RouteClass{Kind: RouteAuthOnly}},

	// Any signed-in account
	{identity.PathDashboard, RouteClass{Kind: RouteProtected}},
	{"/checkout", RouteClass{Kind: RouteProtected}},
	{"/downloads", RouteClass{Kind: RouteProtected}},

	// Back-office areas
	{identity.PathAdminHome, RouteClass{
		Kind:          RouteRoleRestricted,
		RequiredRoles: []identity.Role{identity.RoleAdmin},
	}},
	{identity.PathEditorHome, RouteClass{
		Kind:          RouteRoleRestricted,
		RequiredRoles: []identity.Role{identity.RoleAdmin, identity.RoleEditor},
	}},
	{identity.PathArtistHome, RouteClass{
		Kind:          RouteRoleRestricted,
		RequiredRoles: []identity.Role{identity.RoleAdmin, identity.RoleArtist},
	}},
}

// sortedTable holds routeTable ordered longest-prefix-first so the first
// match wins. Built once at init.
var sortedTable = func() []routeRule {
	rules := make([]routeRule, len(routeTable))
	copy(rules, routeTable)
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].prefix) > len(rules[j].prefix)
	})
	return rules
}()

// Classify maps a URL path to its [RouteClass].
//
// # Fail-Closed Default
//
// A path matching no rule is PROTECTED. A newly added page that nobody
// classified must not become accidentally public.
func Classify(path string) RouteClass {
	if path == "" {
		path = "/"
	}

	for _, rule := range sortedTable {
		if matchesPrefix(path, rule.prefix) {
			return rule.class
		}
	}

	return RouteClass{Kind: RouteProtected}
}

// matchesPrefix reports whether path falls under prefix on a whole-segment
// boundary. The root prefix "/" matches only the home page itself, otherwise
// it would classify the entire site.
func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}

	if !strings.HasPrefix(path, prefix) {
		return false
	}

	// Exact match, or the next byte starts a new segment.
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
