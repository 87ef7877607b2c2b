// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

/*
Package signin implements the interactive credential-verification flow as an
explicit state machine.

One [Attempt] models a single pass through the sign-in form: password entry,
the optional one-time-code step with its delivery-kind cascade, and the
fallback to password-only completion when code delivery is unavailable. The
[Machine] owns every transition; HTTP handlers only relay events into it and
render the resulting attempt.
*/
package signin

import (
	"github.com/cadenza-music/cadenza/internal/identity"
)

// # Stages

// Stage identifies where an attempt currently sits in the sign-in flow.
type Stage string

const (
	// StageCollectingPassword is the initial stage: the form is asking for
	// email and password.
	StageCollectingPassword Stage = "collecting_password"

	// StagePasswordVerified is the transient stage between a successful
	// credential check and computing the post-login destination. It is
	// observable in an attempt only while completion is in flight.
	StagePasswordVerified Stage = "password_verified"

	// StageAwaitingOTC means a one-time code was dispatched and the form is
	// asking for it.
	StageAwaitingOTC Stage = "awaiting_otc"

	// StageOTCFailed is a short-lived dead end entered when a submitted code
	// was rejected as expired or invalid under every delivery kind. After
	// ResetDelaySeconds it collapses back to StageCollectingPassword.
	StageOTCFailed Stage = "otc_failed"

	// StageFallbackOffered means code delivery is unavailable and the user
	// is being offered password-only completion instead.
	StageFallbackOffered Stage = "fallback_offered"

	// StageComplete is terminal: the session is established and Destination
	// holds where to navigate next.
	StageComplete Stage = "complete"
)

// # Notices

// Notice is the user-facing message slot on an attempt. Handlers map these
// to copy; the machine never emits free-form text.
type Notice string

const (
	NoticeNone Notice = ""

	// NoticeInvalidCredentials is deliberately shared by unknown-email and
	// wrong-password outcomes so responses cannot be used to probe which
	// addresses hold accounts.
	NoticeInvalidCredentials Notice = "invalid_credentials"

	NoticeEmailNotConfirmed Notice = "email_not_confirmed"
	NoticeSignInFailed      Notice = "sign_in_failed"
	NoticeOTCRateLimited    Notice = "otc_rate_limited"
	NoticeOTCChannelDown    Notice = "otc_channel_down"
	NoticeOTCSendFailed     Notice = "otc_send_failed"
	NoticeCodeFormat        Notice = "code_format"
	NoticeCodeInvalid       Notice = "code_invalid"
	NoticeCodeExpired       Notice = "code_expired"
	NoticeVerifyFailed      Notice = "verify_failed"
)

// # The Attempt

// Attempt is the full state of one sign-in flow. Credential fields never
// serialize; everything else is safe to render back to the form.
type Attempt struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`

	Email    string `json:"email"`
	Password string `json:"-"`

	// OTCValue is the code as typed so far; cleared on every stage change
	// that leaves the code step.
	OTCValue string `json:"-"`

	// KindsTried records the delivery kinds already rejected for the current
	// code submission, in cascade order.
	KindsTried []identity.CodeKind `json:"-"`

	// ResendCooldownSeconds counts down while StageAwaitingOTC; resending is
	// a no-op until it reaches zero.
	ResendCooldownSeconds int `json:"resend_cooldown_seconds"`

	// ResetDelaySeconds counts down while StageOTCFailed; at zero the
	// attempt resets to StageCollectingPassword.
	ResetDelaySeconds int `json:"reset_delay_seconds"`

	Notice Notice `json:"notice"`

	// Destination is the post-login path, set only once StageComplete.
	Destination string `json:"destination,omitempty"`

	// SessionToken is handed to the HTTP layer for the cookie write and is
	// never rendered.
	SessionToken string `json:"-"`

	// ReturnPath is the optional path the visitor was heading to before
	// being sent to sign-in. It survives every transition and wins over the
	// role home when the attempt completes.
	ReturnPath string `json:"return_path,omitempty"`
}

// NewAttempt returns a fresh attempt in the initial stage.
func NewAttempt(id, returnPath string) *Attempt {
	return &Attempt{
		ID:         id,
		Stage:      StageCollectingPassword,
		ReturnPath: returnPath,
	}
}

/*
Tick advances the attempt's timers by one second.

While awaiting a code the resend cooldown counts down and stops at zero.
While in the failed stage the reset delay counts down, and at zero the
attempt returns to password collection with the code step wiped. Every other
stage ignores time.
*/
func (a *Attempt) Tick() {
	switch a.Stage {
	case StageAwaitingOTC:
		if a.ResendCooldownSeconds > 0 {
			a.ResendCooldownSeconds--
		}
	case StageOTCFailed:
		if a.ResetDelaySeconds > 0 {
			a.ResetDelaySeconds--
		}
		if a.ResetDelaySeconds == 0 {
			a.resetToPassword()
		}
	}
}

// resetToPassword returns the attempt to the initial stage, discarding
// everything gathered during the code step.
func (a *Attempt) resetToPassword() {
	a.Stage = StageCollectingPassword
	a.OTCValue = ""
	a.KindsTried = nil
	a.ResendCooldownSeconds = 0
	a.ResetDelaySeconds = 0
	a.Notice = NoticeNone
}
