// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package identity

import (
	"context"
	"time"
)

// # Code Kinds

// CodeKind is the server-side interpretation of a one-time code.
//
// The provider does not tell the caller in advance which kind a given code
// belongs to, so verification probes kinds in the fixed order returned by
// [CodeKindCascade].
type CodeKind string

const (
	// CodeKindEmail is a code requested during sign-in and delivered by email.
	CodeKindEmail CodeKind = "email"

	// CodeKindRecovery is a code issued by the password-recovery flow.
	CodeKindRecovery CodeKind = "recovery"

	// CodeKindSignup is a code issued at registration for email confirmation.
	CodeKindSignup CodeKind = "signup"
)

// CodeKindCascade returns the verification order for ambiguous one-time codes.
//
// The order (email, recovery, signup) is a compatibility contract with
// already-issued codes and must never be reordered or probed in parallel.
// Each call returns a fresh slice so callers cannot corrupt the cascade.
func CodeKindCascade() []CodeKind {
	return []CodeKind{CodeKindEmail, CodeKindRecovery, CodeKindSignup}
}

// # Collaborator Contracts

// User is the identity-provider view of an account, before any role lookup.
type User struct {
	IdentityID     string
	Email          string
	EmailConfirmed bool
}

// Session is the result of a successful credential verification: the resolved
// user plus fresh token material for the session cookie.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Rotation carries replacement token material emitted when the provider
// transparently refreshed an expired-but-refreshable credential token. The
// gateway is the sole writer of rotated tokens, and writes them back on the
// same response that carried the request.
type Rotation struct {
	Token     string
	ExpiresAt time.Time
}

// Provider is the external identity/session collaborator consumed by the core.
//
// Implementations classify their failures into the sentinels of this package
// (see errors.go); callers never see provider-specific error shapes.
type Provider interface {
	// CurrentUser resolves a credential token to the user it belongs to.
	// When the token is expired but the underlying session is still live, the
	// provider refreshes it and returns a non-nil [Rotation] alongside the
	// user. An error means the token resolves to nobody.
	CurrentUser(ctx context.Context, token string) (*User, *Rotation, error)

	// SignInWithPassword performs primary password authentication and, on
	// success, establishes a session. Failures are ErrInvalidCredentials,
	// ErrEmailNotConfirmed, or a wrapped provider error.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SendOneTimeCode requests that a fresh code be delivered to the account's
	// email. Failures are ErrRateLimited, ErrChannelUnavailable, or a wrapped
	// provider error.
	SendOneTimeCode(ctx context.Context, email string) error

	// VerifyOneTimeCode checks a user-entered code under one specific kind
	// interpretation and, on success, establishes a session. A rejected code
	// is ErrCodeExpiredOrInvalid; anything else is a wrapped provider error.
	VerifyOneTimeCode(ctx context.Context, email, code string, kind CodeKind) (*Session, error)

	// SignOut invalidates the session behind the given credential token.
	// It is idempotent: an unknown or already-dead token is not an error.
	SignOut(ctx context.Context, token string) error
}

// ProfileStore is the external user-profile collaborator that owns role
// assignments, keyed by provider identity.
type ProfileStore interface {
	// Role returns the role recorded for the identity, or ErrProfileNotFound
	// when no profile record exists yet.
	Role(ctx context.Context, identityID string) (Role, error)
}
