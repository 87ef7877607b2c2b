// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

/*
Package identity implements request-time identity resolution for Cadenza.

It defines the core domain types (Principal, Role) and the contracts of the two
external collaborators the platform consumes: the identity provider (sessions,
passwords, one-time codes) and the profile store (roles).

# Architecture

A [Principal] is constructed fresh for every request by the [Resolver] and
handed to consumers as an explicit value. There is no ambient "current user"
singleton: a role change is only visible through a new Principal on the next
request. This statelessness is what allows the gateway to scale horizontally
with zero coordination.
*/
package identity

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted access to the admin/CRM back office
	RoleAdmin Role = "admin"

	// Can manage lyrics, news, and event content
	RoleEditor Role = "editor"

	// Can manage their own artist profile and releases
	RoleArtist Role = "artist"

	// Default role for registered customers of the store
	RoleCustomer Role = "customer"
)

// ParseRole maps a stored role string onto the closed [Role] set.
//
// Unknown values collapse to [RoleCustomer]. The mapping never escalates: a
// corrupt or unexpected profile value can only produce the least privileged
// role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	case RoleArtist:
		return RoleArtist
	case RoleCustomer:
		return RoleCustomer
	default:
		return RoleCustomer
	}
}

// # Principal

// Principal is the resolved caller for one request.
//
// # Lifecycle
//
// Constructed per request (or per sign-in attempt) by [Resolver.Resolve] plus
// [Resolver.RoleFor]; never cached across requests and never mutated. A nil
// *Principal means the caller is anonymous.
type Principal struct {
	// IdentityID is the opaque stable identifier from the identity provider.
	IdentityID string `json:"identity_id"`

	// Email is the account email, used for display and OTC delivery.
	// May be empty if the provider did not report one.
	Email string `json:"email,omitempty"`

	// EmailConfirmed reports whether the provider considers the email verified.
	EmailConfirmed bool `json:"email_confirmed"`

	// Role is the caller's resolved role. Empty until [Resolver.RoleFor] has
	// been consulted; the gateway only pays for the profile lookup on
	// role-restricted routes.
	Role Role `json:"role,omitempty"`
}
