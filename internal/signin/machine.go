// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package signin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/apperr"
)

// RoleLookup retrieves the role for a verified identity. Satisfied by
// [identity.Resolver].
type RoleLookup interface {
	RoleFor(ctx context.Context, identityID string) identity.Role
}

// resendCooldown is the seconds a user must wait between code sends.
const resendCooldown = 60

// otcFailedResetDelay is the seconds an attempt lingers in StageOTCFailed
// before collapsing back to password collection.
const otcFailedResetDelay = 5

// Machine owns every sign-in transition. It holds no per-attempt state and is
// safe for concurrent use; all mutation happens on the [Attempt] passed in.
type Machine struct {
	provider identity.Provider
	roles    RoleLookup
	log      *slog.Logger
}

// NewMachine builds a Machine over the identity provider and role lookup.
func NewMachine(provider identity.Provider, roles RoleLookup, log *slog.Logger) *Machine {
	return &Machine{
		provider: provider,
		roles:    roles,
		log:      log.With(slog.String("component", "signin")),
	}
}

// errStage reports a transition fired in a stage where it has no meaning.
// This is a caller bug (or a stale form), never a user-credential problem.
func errStage(event string, stage Stage) error {
	return apperr.Conflict(fmt.Sprintf("cannot %s while %s", event, stage))
}

/*
Submit verifies email and password and, on success, completes the attempt.

Password success alone is sufficient to sign in; the one-time-code step is an
additional verification channel the user may request, never a forced second
factor. On failure the attempt stays in password collection with a classified
notice: unknown-account and wrong-password outcomes share one generic notice
so responses cannot be used to enumerate accounts.
*/
func (m *Machine) Submit(ctx context.Context, a *Attempt, email, password string) error {
	if a.Stage != StageCollectingPassword {
		return errStage("submit password", a.Stage)
	}

	a.Email = email
	a.Password = password

	session, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		a.Notice = classifyPasswordFailure(err)
		return nil
	}

	return m.complete(ctx, a, session)
}

/*
RequestOTC asks the provider to send a one-time code to the account's email.

The password is re-validated first, so a code is never dispatched for
credentials that no longer work; a failed re-validation keeps the attempt in
password collection and sends nothing. Send failures never advance the stage:
a rate-limit is surfaced with a wait notice, a degraded delivery channel
moves the attempt to the password-only fallback offer, and anything else gets
a generic retry notice. On success the attempt enters the code stage with a
fresh resend cooldown.
*/
func (m *Machine) RequestOTC(ctx context.Context, a *Attempt, email, password string) error {
	if a.Stage != StageCollectingPassword {
		return errStage("request code", a.Stage)
	}

	a.Email = email
	a.Password = password

	session, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		a.Notice = classifyPasswordFailure(err)
		return nil
	}
	// The check's session is not the sign-in; revoke it so no anchor is
	// left behind for every code request.
	if err := m.provider.SignOut(ctx, session.Token); err != nil {
		m.log.WarnContext(ctx, "verification session revoke failed", slog.String("error", err.Error()))
	}

	if err := m.provider.SendOneTimeCode(ctx, email); err != nil {
		switch {
		case errors.Is(err, identity.ErrRateLimited):
			a.Notice = NoticeOTCRateLimited
		case errors.Is(err, identity.ErrChannelUnavailable):
			a.Stage = StageFallbackOffered
			a.Notice = NoticeOTCChannelDown
		default:
			m.log.WarnContext(ctx, "code send failed", slog.String("error", err.Error()))
			a.Notice = NoticeOTCSendFailed
		}
		return nil
	}

	a.Stage = StageAwaitingOTC
	a.ResendCooldownSeconds = resendCooldown
	a.OTCValue = ""
	a.KindsTried = nil
	a.Notice = NoticeNone
	return nil
}

/*
SubmitOTC verifies a one-time code.

The code must be 6 or 8 digits; a malformed code is rejected locally and the
provider is never called. A well-formed code is verified through the fixed
kind cascade: email first, then recovery, then signup, stopping at the first
kind the provider accepts. The provider does not reveal which kind a given
code was issued under, so the probe order is the only way to disambiguate,
and it must not be reordered or parallelized once codes are in the wild.

When every kind rejects the code: an expired-or-invalid rejection parks the
attempt in the failed stage, which auto-resets to password collection after a
short delay, because a dead code is not worth retyping. Any other rejection
keeps the code stage open with a generic invalid-code notice.

Acceptance without a determinable identity is treated as a hard verification
failure; access is never granted on an unknown identity.
*/
func (m *Machine) SubmitOTC(ctx context.Context, a *Attempt, code string) error {
	if a.Stage != StageAwaitingOTC {
		return errStage("submit code", a.Stage)
	}

	if !validCodeFormat(code) {
		a.Notice = NoticeCodeFormat
		return nil
	}

	a.OTCValue = code
	a.KindsTried = nil

	var lastErr error
	for _, kind := range identity.CodeKindCascade() {
		a.KindsTried = append(a.KindsTried, kind)

		session, err := m.provider.VerifyOneTimeCode(ctx, a.Email, code, kind)
		if err != nil {
			lastErr = err
			continue
		}

		if session.User.IdentityID == "" {
			a.Notice = NoticeVerifyFailed
			return nil
		}
		return m.complete(ctx, a, session)
	}

	if errors.Is(lastErr, identity.ErrCodeExpiredOrInvalid) {
		a.Stage = StageOTCFailed
		a.ResetDelaySeconds = otcFailedResetDelay
		a.Notice = NoticeCodeExpired
		return nil
	}

	m.log.WarnContext(ctx, "code verification failed", slog.String("error", lastErr.Error()))
	a.Notice = NoticeCodeInvalid
	return nil
}

/*
ResendOTC repeats the code send while the attempt is in the code stage.

It is a no-op while the cooldown is still counting down; no provider call is
made. A permitted resend classifies failures like [Machine.RequestOTC] but
always keeps the attempt in the code stage, since a code may already be in
flight. A successful resend restarts the cooldown.
*/
func (m *Machine) ResendOTC(ctx context.Context, a *Attempt) error {
	if a.Stage != StageAwaitingOTC {
		return errStage("resend code", a.Stage)
	}

	if a.ResendCooldownSeconds > 0 {
		return nil
	}

	if err := m.provider.SendOneTimeCode(ctx, a.Email); err != nil {
		switch {
		case errors.Is(err, identity.ErrRateLimited):
			a.Notice = NoticeOTCRateLimited
		case errors.Is(err, identity.ErrChannelUnavailable):
			a.Notice = NoticeOTCChannelDown
		default:
			m.log.WarnContext(ctx, "code resend failed", slog.String("error", err.Error()))
			a.Notice = NoticeOTCSendFailed
		}
		return nil
	}

	a.ResendCooldownSeconds = resendCooldown
	a.Notice = NoticeNone
	return nil
}

// Back abandons the code step and returns to password collection, discarding
// the typed code and the cooldown. Always permitted from the code, failed,
// and fallback stages.
func (m *Machine) Back(a *Attempt) error {
	switch a.Stage {
	case StageAwaitingOTC, StageOTCFailed, StageFallbackOffered:
		a.resetToPassword()
		return nil
	default:
		return errStage("go back", a.Stage)
	}
}

/*
Fallback completes sign-in with the password alone, bypassing the code step.

It is offered explicitly whenever the code delivery channel is degraded, and
remains available throughout the code stage as an escape hatch: a broken
email pipeline must never block a user who has already proven their
password. The password is verified again here; the earlier check is not
trusted across the gap.
*/
func (m *Machine) Fallback(ctx context.Context, a *Attempt, email, password string) error {
	if a.Stage != StageAwaitingOTC && a.Stage != StageFallbackOffered {
		return errStage("fall back to password", a.Stage)
	}

	if email == "" {
		email = a.Email
	}
	if password == "" {
		password = a.Password
	}

	session, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		a.Notice = classifyPasswordFailure(err)
		return nil
	}

	return m.complete(ctx, a, session)
}

// complete finishes a verified attempt: looks up the role, computes the
// post-login destination, and records the session token for the cookie
// write. The return path carried from the gateway wins over the role home.
func (m *Machine) complete(ctx context.Context, a *Attempt, session *identity.Session) error {
	a.Stage = StagePasswordVerified

	role := m.roles.RoleFor(ctx, session.User.IdentityID)
	a.Destination = identity.DestinationFor(role, a.ReturnPath)
	a.SessionToken = session.Token

	a.Stage = StageComplete
	a.Password = ""
	a.OTCValue = ""
	a.KindsTried = nil
	a.ResendCooldownSeconds = 0
	a.ResetDelaySeconds = 0
	a.Notice = NoticeNone

	m.log.InfoContext(ctx, "sign-in complete",
		slog.String("identity_id", session.User.IdentityID),
		slog.String("role", string(role)),
	)
	return nil
}

// classifyPasswordFailure maps provider sign-in errors to notices. Unknown
// failures get the generic retry notice; the raw provider text is never
// surfaced.
func classifyPasswordFailure(err error) Notice {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return NoticeInvalidCredentials
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return NoticeEmailNotConfirmed
	default:
		return NoticeSignInFailed
	}
}

// validCodeFormat reports whether the code is exactly 6 or 8 ASCII digits.
// Both lengths are accepted; the provider has issued codes of both sizes.
func validCodeFormat(code string) bool {
	if len(code) != 6 && len(code) != 8 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
