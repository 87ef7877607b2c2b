// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package identity

// # Landing Routes

// Landing routes per role. These are referenced by the route table as well, so
// "where does role X land" is defined exactly once.
const (
	PathAdminHome  = "/admin"
	PathEditorHome = "/editor"
	PathArtistHome = "/artist"
	PathDashboard  = "/dashboard"
	PathLogin      = "/login"
)

// DestinationFor maps a resolved role (plus an optional explicit return path)
// to a landing route.
//
// # Policy
//
// An explicit returnPath — carried from the gateway's redirect-to-login — wins
// and is returned verbatim, preserving "return to where you were". Otherwise
// the role alone determines the destination. Both the authorization gateway
// and the sign-in state machine call this function; it is the single source of
// truth for redirect policy.
func DestinationFor(role Role, returnPath string) string {
	if returnPath != "" {
		return returnPath
	}

	switch role {
	case RoleAdmin:
		return PathAdminHome
	case RoleArtist:
		return PathArtistHome
	case RoleEditor:
		return PathEditorHome
	case RoleCustomer:
		return PathDashboard
	default:
		// Unknown roles land on the generic dashboard, same as customers.
		return PathDashboard
	}
}
