// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package identity

import "errors"

// # Error Taxonomy
//
// Collaborator failures are classified ONCE at the provider boundary into this
// closed set of sentinels. Downstream logic (gateway, sign-in state machine)
// switches on these with [errors.Is] and never inspects provider error text.

var (
	// ErrInvalidCredentials covers both "unknown account" and "wrong password".
	// The two cases are deliberately indistinguishable to the caller so that
	// sign-in responses carry no account-enumeration signal.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrEmailNotConfirmed is returned when the password was correct but the
	// account's email address has not been verified yet. Surfaced distinctly
	// so the user knows the remedy is confirmation, not another password.
	ErrEmailNotConfirmed = errors.New("identity: email not confirmed")

	// ErrRateLimited is returned when the provider refuses to send another
	// one-time code for now. The provider's limit is authoritative; callers
	// surface it and never retry silently.
	ErrRateLimited = errors.New("identity: rate limited")

	// ErrChannelUnavailable is returned when the one-time-code delivery
	// channel (email infrastructure) is degraded. This is a provider-health
	// signal, not a user mistake; callers should offer the password-only path.
	ErrChannelUnavailable = errors.New("identity: code delivery channel unavailable")

	// ErrCodeExpiredOrInvalid is returned when a one-time code was rejected as
	// expired, already used, or simply wrong for every interpretation tried.
	ErrCodeExpiredOrInvalid = errors.New("identity: code expired or invalid")

	// ErrSessionExpired is returned when a credential token references a
	// session that no longer exists and cannot be refreshed.
	ErrSessionExpired = errors.New("identity: session expired")

	// ErrProfileNotFound is returned by the profile store when the identity
	// exists in the provider but has no profile record yet.
	ErrProfileNotFound = errors.New("identity: profile not found")
)
