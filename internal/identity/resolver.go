// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package identity

import (
	"context"
	"errors"
	"log/slog"
)

// # Session Resolution

// Resolver turns a request's credential token into a [Principal] and answers
// role lookups. It is the only component that talks to both collaborators.
//
// # Fail-Closed Policy
//
// Resolve never raises to the caller: any provider failure is treated as an
// anonymous request. RoleFor never raises either: a missing profile record or
// a store failure yields [RoleCustomer], the least privileged role. Both
// fallbacks are explicit branches so the policy is auditable, not a side
// effect of error swallowing.
type Resolver struct {
	provider Provider
	profiles ProfileStore
	log      *slog.Logger
}

// NewResolver constructs a [Resolver] with its collaborator dependencies.
func NewResolver(provider Provider, profiles ProfileStore, log *slog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		profiles: profiles,
		log:      log,
	}
}

/*
Resolve asks the identity provider who the credential token belongs to.

Description: Returns the request Principal (without role — see [Resolver.RoleFor]),
plus rotated token material when the provider transparently refreshed an
expired-but-refreshable token. The caller must write the rotation back on the
same response that carried the request.

Parameters:
  - ctx: context.Context
  - token: string (cookie-carried credential token; empty means anonymous)

Returns:
  - *Principal: nil when the request is anonymous
  - *Rotation: non-nil only when the token was rotated
*/
func (resolver *Resolver) Resolve(ctx context.Context, token string) (*Principal, *Rotation) {

	// No token, no round trip.
	if token == "" {
		return nil, nil
	}

	user, rotation, err := resolver.provider.CurrentUser(ctx, token)
	if err != nil {
		// Fail closed on identity: an unreadable, expired, or errored token is
		// anonymous. Log at debug — expired sessions are routine traffic.
		if !errors.Is(err, ErrSessionExpired) {
			resolver.log.DebugContext(ctx, "session_resolution_failed", slog.Any("error", err))
		}
		return nil, nil
	}

	return &Principal{
		IdentityID:     user.IdentityID,
		Email:          user.Email,
		EmailConfirmed: user.EmailConfirmed,
	}, rotation
}

/*
RoleFor retrieves the caller's role from the profile store.

Description: Queries the profile record keyed by provider identity. When the
record is missing, or the query itself fails, the explicit default branch
returns [RoleCustomer] — never a privileged role.

Parameters:
  - ctx: context.Context
  - identityID: string

Returns:
  - Role: the recorded role, or RoleCustomer as the safe default
*/
func (resolver *Resolver) RoleFor(ctx context.Context, identityID string) Role {
	role, err := resolver.profiles.Role(ctx, identityID)
	if err != nil {
		// Explicit safe default: an authenticated identity without a profile
		// record (or with an unreachable profile store) is a plain customer.
		if !errors.Is(err, ErrProfileNotFound) {
			resolver.log.WarnContext(ctx, "role_lookup_failed",
				slog.String("identity_id", identityID),
				slog.Any("error", err),
			)
		}
		return RoleCustomer
	}

	return ParseRole(string(role))
}
