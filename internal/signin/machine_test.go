// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package signin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-music/cadenza/internal/gateway"
	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/signin"
)

// scriptedProvider is a configurable identity provider that records every
// call so tests can assert on sequences, not just outcomes.
type scriptedProvider struct {
	// token resolution; nil means every token is dead
	currentUser *identity.User

	// password sign-in
	passwordErr error
	session     identity.Session

	// code sending
	sendErr   error
	sendCalls int

	// code verification: acceptKind is the single kind that succeeds, all
	// others fail with verifyErr.
	acceptKind    identity.CodeKind
	verifyErr     error
	verifiedKinds []identity.CodeKind

	// sessions revoked through SignOut, in order
	signedOutTokens []string
}

func (p *scriptedProvider) CurrentUser(context.Context, string) (*identity.User, *identity.Rotation, error) {
	if p.currentUser == nil {
		return nil, nil, identity.ErrSessionExpired
	}
	return p.currentUser, nil, nil
}

func (p *scriptedProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	if p.passwordErr != nil {
		return nil, p.passwordErr
	}
	session := p.session
	return &session, nil
}

func (p *scriptedProvider) SendOneTimeCode(context.Context, string) error {
	p.sendCalls++
	return p.sendErr
}

func (p *scriptedProvider) VerifyOneTimeCode(_ context.Context, _, _ string, kind identity.CodeKind) (*identity.Session, error) {
	p.verifiedKinds = append(p.verifiedKinds, kind)
	if kind == p.acceptKind {
		session := p.session
		return &session, nil
	}
	return nil, p.verifyErr
}

func (p *scriptedProvider) SignOut(_ context.Context, token string) error {
	p.signedOutTokens = append(p.signedOutTokens, token)
	return nil
}

// fixedRoles answers every role lookup with one role.
type fixedRoles struct {
	role identity.Role
}

func (f *fixedRoles) RoleFor(context.Context, string) identity.Role { return f.role }

func newMachine(provider identity.Provider, role identity.Role) *signin.Machine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return signin.NewMachine(provider, &fixedRoles{role: role}, log)
}

func validSession() identity.Session {
	return identity.Session{
		User:  identity.User{IdentityID: "u1", Email: "fan@cadenza.app", EmailConfirmed: true},
		Token: "session-token",
	}
}

/*
TestSubmit_PasswordAloneCompletes verifies that a correct password finishes
sign-in without any code step.
*/
func TestSubmit_PasswordAloneCompletes(t *testing.T) {
	provider := &scriptedProvider{session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := signin.NewAttempt("a1", "")

	require.NoError(t, machine.Submit(context.Background(), attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageComplete, attempt.Stage)
	assert.Equal(t, identity.PathDashboard, attempt.Destination)
	assert.Equal(t, "session-token", attempt.SessionToken)
	assert.Empty(t, attempt.Password, "credentials are wiped on completion")
	assert.Zero(t, provider.sendCalls, "no code is sent on the password path")
}

/*
TestSubmit_FailureNotices verifies the error classification shown to the
user: credential failures are generic, the unconfirmed-address case names its
remedy, and everything else gets the retry notice.
*/
func TestSubmit_FailureNotices(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		notice signin.Notice
	}{
		{"wrong_password", identity.ErrInvalidCredentials, signin.NoticeInvalidCredentials},
		{"unconfirmed_email", identity.ErrEmailNotConfirmed, signin.NoticeEmailNotConfirmed},
		{"provider_down", errors.New("503 from upstream"), signin.NoticeSignInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := newMachine(&scriptedProvider{passwordErr: tt.err}, identity.RoleCustomer)
			attempt := signin.NewAttempt("a1", "")

			require.NoError(t, machine.Submit(context.Background(), attempt, "x@y.z", "pw"))

			assert.Equal(t, signin.StageCollectingPassword, attempt.Stage)
			assert.Equal(t, tt.notice, attempt.Notice)
		})
	}
}

/*
TestRequestOTC_RevalidatesPasswordFirst verifies that no code is dispatched
when the supplied credentials fail re-validation.
*/
func TestRequestOTC_RevalidatesPasswordFirst(t *testing.T) {
	provider := &scriptedProvider{passwordErr: identity.ErrInvalidCredentials, session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := signin.NewAttempt("a1", "")

	require.NoError(t, machine.RequestOTC(context.Background(), attempt, "x@y.z", "wrong"))

	assert.Equal(t, signin.StageCollectingPassword, attempt.Stage)
	assert.Equal(t, signin.NoticeInvalidCredentials, attempt.Notice)
	assert.Zero(t, provider.sendCalls)
}

/*
TestRequestOTC_StartsCodeStage verifies the happy path into the code stage
with a fresh 60 second cooldown.
*/
func TestRequestOTC_StartsCodeStage(t *testing.T) {
	provider := &scriptedProvider{session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := signin.NewAttempt("a1", "")

	require.NoError(t, machine.RequestOTC(context.Background(), attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageAwaitingOTC, attempt.Stage)
	assert.Equal(t, 60, attempt.ResendCooldownSeconds)
	assert.Equal(t, 1, provider.sendCalls)
}

/*
TestRequestOTC_RevokesCheckSession verifies that the session minted by the
pre-send credential check is revoked again: requesting a code must not leave
a live session behind before any code has been verified.
*/
func TestRequestOTC_RevokesCheckSession(t *testing.T) {
	provider := &scriptedProvider{session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := signin.NewAttempt("a1", "")

	require.NoError(t, machine.RequestOTC(context.Background(), attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, []string{"session-token"}, provider.signedOutTokens)
	assert.Empty(t, attempt.SessionToken, "no session is handed out before completion")
}

/*
TestSubmitOTC_CascadeOrder verifies the kind cascade: a code accepted only
under the signup interpretation must have been probed as email, then
recovery, then signup, in exactly that order.
*/
func TestSubmitOTC_CascadeOrder(t *testing.T) {
	provider := &scriptedProvider{
		session:    validSession(),
		acceptKind: identity.CodeKindSignup,
		verifyErr:  identity.ErrCodeExpiredOrInvalid,
	}
	machine := newMachine(provider, identity.RoleArtist)
	attempt := codeStageAttempt(t, machine, provider)

	require.NoError(t, machine.SubmitOTC(context.Background(), attempt, "123456"))

	assert.Equal(t,
		[]identity.CodeKind{identity.CodeKindEmail, identity.CodeKindRecovery, identity.CodeKindSignup},
		provider.verifiedKinds,
	)
	assert.Equal(t, signin.StageComplete, attempt.Stage)
	assert.Equal(t, identity.PathArtistHome, attempt.Destination)
}

/*
TestSubmitOTC_FormatCheckedLocally verifies that a malformed code never
reaches the provider.
*/
func TestSubmitOTC_FormatCheckedLocally(t *testing.T) {
	provider := &scriptedProvider{session: validSession(), acceptKind: identity.CodeKindEmail}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)

	for _, code := range []string{"", "12345", "1234567", "123456789", "12a456", "12 456"} {
		require.NoError(t, machine.SubmitOTC(context.Background(), attempt, code))

		assert.Equal(t, signin.StageAwaitingOTC, attempt.Stage, "code %q", code)
		assert.Equal(t, signin.NoticeCodeFormat, attempt.Notice, "code %q", code)
		assert.Empty(t, provider.verifiedKinds, "code %q", code)
	}

	// Both issued lengths are acceptable input.
	require.NoError(t, machine.SubmitOTC(context.Background(), attempt, "12345678"))
	assert.Equal(t, signin.StageComplete, attempt.Stage)
}

/*
TestSubmitOTC_ExpiredCodeParksAndAutoResets verifies the dead-code path: all
kinds rejected as expired parks the attempt for 5 seconds, after which the
timers collapse it back to password collection with the code step wiped.
*/
func TestSubmitOTC_ExpiredCodeParksAndAutoResets(t *testing.T) {
	provider := &scriptedProvider{
		session:    validSession(),
		acceptKind: identity.CodeKind("none"),
		verifyErr:  identity.ErrCodeExpiredOrInvalid,
	}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)

	require.NoError(t, machine.SubmitOTC(context.Background(), attempt, "123456"))

	assert.Equal(t, signin.StageOTCFailed, attempt.Stage)
	assert.Equal(t, 5, attempt.ResetDelaySeconds)
	assert.Equal(t, signin.NoticeCodeExpired, attempt.Notice)

	for range 5 {
		attempt.Tick()
	}

	assert.Equal(t, signin.StageCollectingPassword, attempt.Stage)
	assert.Empty(t, attempt.OTCValue)
	assert.Empty(t, attempt.KindsTried)
	assert.Equal(t, signin.NoticeNone, attempt.Notice)
}

/*
TestSubmitOTC_OtherRejectionStaysInCodeStage verifies that a non-expiry
rejection keeps the code stage open for a retype.
*/
func TestSubmitOTC_OtherRejectionStaysInCodeStage(t *testing.T) {
	provider := &scriptedProvider{
		session:    validSession(),
		acceptKind: identity.CodeKind("none"),
		verifyErr:  errors.New("verification service hiccup"),
	}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)

	require.NoError(t, machine.SubmitOTC(context.Background(), attempt, "123456"))

	assert.Equal(t, signin.StageAwaitingOTC, attempt.Stage)
	assert.Equal(t, signin.NoticeCodeInvalid, attempt.Notice)
}

/*
TestSubmitOTC_UnknownIdentityIsHardFailure verifies that a code acceptance
carrying no identity does not grant access.
*/
func TestSubmitOTC_UnknownIdentityIsHardFailure(t *testing.T) {
	provider := &scriptedProvider{
		session:    identity.Session{Token: "t"},
		acceptKind: identity.CodeKindEmail,
	}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)

	require.NoError(t, machine.SubmitOTC(context.Background(), attempt, "123456"))

	assert.Equal(t, signin.StageAwaitingOTC, attempt.Stage)
	assert.Equal(t, signin.NoticeVerifyFailed, attempt.Notice)
	assert.Empty(t, attempt.SessionToken)
}

/*
TestResendOTC_CooldownGate verifies that resend makes no provider call while
the cooldown runs, and resets it to 60 once permitted.
*/
func TestResendOTC_CooldownGate(t *testing.T) {
	provider := &scriptedProvider{session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)
	sendsAfterRequest := provider.sendCalls

	// Blocked while counting down.
	require.NoError(t, machine.ResendOTC(context.Background(), attempt))
	assert.Equal(t, sendsAfterRequest, provider.sendCalls)

	// Permitted exactly at zero.
	for attempt.ResendCooldownSeconds > 0 {
		attempt.Tick()
	}
	require.NoError(t, machine.ResendOTC(context.Background(), attempt))

	assert.Equal(t, sendsAfterRequest+1, provider.sendCalls)
	assert.Equal(t, 60, attempt.ResendCooldownSeconds)
}

/*
TestBack_ReturnsToPasswordCollection verifies the unconditional back
transition wipes the code step.
*/
func TestBack_ReturnsToPasswordCollection(t *testing.T) {
	provider := &scriptedProvider{session: validSession()}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := codeStageAttempt(t, machine, provider)
	attempt.OTCValue = "123456"

	require.NoError(t, machine.Back(attempt))

	assert.Equal(t, signin.StageCollectingPassword, attempt.Stage)
	assert.Empty(t, attempt.OTCValue)
	assert.Zero(t, attempt.ResendCooldownSeconds)
}

/*
TestScenario_ReturnPathThenRoleHome walks scenario A end to end: an anonymous
request to /admin/leads redirects to login carrying the path; sign-in as a
customer honors that return path; re-requesting /admin/leads as the customer
redirects to the generic dashboard.
*/
func TestScenario_ReturnPathThenRoleHome(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	// Gateway resolver over the same scripted provider.
	provider := &scriptedProvider{session: validSession()}
	profiles := &customerProfiles{}
	resolver := identity.NewResolver(provider, profiles, log)
	gw := gateway.New(resolver, log)

	// 1. Anonymous request to the restricted page.
	decision, _, _ := gw.Authorize(ctx, "", "/admin/leads")
	require.Equal(t, gateway.ActionRedirectToLogin, decision.Action)
	require.Equal(t, "/admin/leads", decision.ReturnPath)

	// 2. Password sign-in with the carried return path.
	machine := signin.NewMachine(provider, resolver, log)
	attempt := signin.NewAttempt("a1", decision.ReturnPath)
	require.NoError(t, machine.Submit(ctx, attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageComplete, attempt.Stage)
	assert.Equal(t, "/admin/leads", attempt.Destination, "return path wins over role home")

	// 3. The customer lands back on /admin/leads and is bounced to their own home.
	user := validSession().User
	provider.currentUser = &user
	decision, principal, _ := gw.Authorize(ctx, attempt.SessionToken, "/admin/leads")
	require.NotNil(t, principal)
	assert.Equal(t, gateway.ActionRedirectToRoleHome, decision.Action)
	assert.Equal(t, identity.PathDashboard, decision.Location)
}

/*
TestScenario_EightDigitRecoveryCode walks scenario B: password, code request,
then an 8-digit code accepted under the recovery kind.
*/
func TestScenario_EightDigitRecoveryCode(t *testing.T) {
	provider := &scriptedProvider{
		session:    validSession(),
		acceptKind: identity.CodeKindRecovery,
		verifyErr:  identity.ErrCodeExpiredOrInvalid,
	}
	machine := newMachine(provider, identity.RoleEditor)
	ctx := context.Background()

	attempt := signin.NewAttempt("a1", "")
	require.NoError(t, machine.RequestOTC(ctx, attempt, "fan@cadenza.app", "pw"))
	require.Equal(t, signin.StageAwaitingOTC, attempt.Stage)

	require.NoError(t, machine.SubmitOTC(ctx, attempt, "12345678"))

	assert.Equal(t, signin.StageComplete, attempt.Stage)
	assert.Equal(t,
		[]identity.CodeKind{identity.CodeKindEmail, identity.CodeKindRecovery},
		provider.verifiedKinds,
	)
	assert.Equal(t, identity.PathEditorHome, attempt.Destination)
}

/*
TestScenario_DegradedChannelFallsBackToPassword walks scenario C: the code
request fails with a degraded channel, the code stage is never entered, the
notice recommends the password-only path, and the fallback completes sign-in
without any code verification.
*/
func TestScenario_DegradedChannelFallsBackToPassword(t *testing.T) {
	provider := &scriptedProvider{
		session: validSession(),
		sendErr: identity.ErrChannelUnavailable,
	}
	machine := newMachine(provider, identity.RoleCustomer)
	ctx := context.Background()

	attempt := signin.NewAttempt("a1", "")
	require.NoError(t, machine.RequestOTC(ctx, attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageFallbackOffered, attempt.Stage)
	assert.Equal(t, signin.NoticeOTCChannelDown, attempt.Notice)

	require.NoError(t, machine.Fallback(ctx, attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageComplete, attempt.Stage)
	assert.Empty(t, provider.verifiedKinds, "no code verification on the fallback path")
}

/*
TestRequestOTC_RateLimitedStaysPut verifies the provider's rate limit is
surfaced with its own notice and never advances the stage.
*/
func TestRequestOTC_RateLimitedStaysPut(t *testing.T) {
	provider := &scriptedProvider{session: validSession(), sendErr: identity.ErrRateLimited}
	machine := newMachine(provider, identity.RoleCustomer)
	attempt := signin.NewAttempt("a1", "")

	require.NoError(t, machine.RequestOTC(context.Background(), attempt, "fan@cadenza.app", "pw"))

	assert.Equal(t, signin.StageCollectingPassword, attempt.Stage)
	assert.Equal(t, signin.NoticeOTCRateLimited, attempt.Notice)
}

// customerProfiles reports every identity as a customer.
type customerProfiles struct{}

func (customerProfiles) Role(context.Context, string) (identity.Role, error) {
	return identity.RoleCustomer, nil
}

// codeStageAttempt drives a fresh attempt into the code stage.
func codeStageAttempt(t *testing.T, machine *signin.Machine, provider *scriptedProvider) *signin.Attempt {
	t.Helper()

	attempt := signin.NewAttempt("a1", "")
	require.NoError(t, machine.RequestOTC(context.Background(), attempt, "fan@cadenza.app", "pw"))
	require.Equal(t, signin.StageAwaitingOTC, attempt.Stage)

	provider.verifiedKinds = nil
	return attempt
}
