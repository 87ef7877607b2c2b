// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/dberr"
	"github.com/cadenza-music/cadenza/internal/platform/sec"
	"github.com/cadenza-music/cadenza/pkg/uuid"
)

// dummyHash is a valid bcrypt digest compared against when the account does
// not exist, so unknown-email and wrong-password take the same time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Provider implements [identity.Provider] and [identity.ProfileStore] over
// the account, code, and session stores.
type Provider struct {
	accounts *AccountStore
	codes    *CodeStore
	limiter  *SendLimiter
	sessions *SessionStore
	tokens   *sec.TokenService
	mailer   Mailer
	log      *slog.Logger
}

// NewProvider wires the provider from its stores and services.
func NewProvider(
	accounts *AccountStore,
	codes *CodeStore,
	limiter *SendLimiter,
	sessions *SessionStore,
	tokens *sec.TokenService,
	mailer Mailer,
	log *slog.Logger,
) *Provider {
	return &Provider{
		accounts: accounts,
		codes:    codes,
		limiter:  limiter,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		log:      log.With(slog.String("component", "accounts")),
	}
}

/*
CurrentUser resolves an access token to its user.

A token that verifies cleanly answers from its own claims with no store
round trip. A token that is expired but authentic is refreshed against the
session anchor: if the anchor is still live, a replacement token is minted
under the same session id and returned as a [identity.Rotation]. Anything
else resolves to nobody.
*/
func (p *Provider) CurrentUser(ctx context.Context, token string) (*identity.User, *identity.Rotation, error) {
	claims, err := p.tokens.VerifyToken(token)

	switch {
	case err == nil:
		user := claimsUser(claims)
		return &user, nil, nil

	case errors.Is(err, sec.ErrTokenExpired) && claims != nil:
		return p.refresh(ctx, claims)

	default:
		return nil, nil, fmt.Errorf("accounts: resolving token: %w", err)
	}
}

func (p *Provider) refresh(ctx context.Context, claims *sec.SessionClaims) (*identity.User, *identity.Rotation, error) {
	record, err := p.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if record.AccountID != claims.IdentityID {
		// A token claiming someone else's session is discarded, not refreshed.
		return nil, nil, identity.ErrSessionExpired
	}

	// Re-read the account so a refresh picks up email or confirmation
	// changes instead of carrying stale claims for another 30 days.
	account, err := p.accounts.FindByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, nil, identity.ErrSessionExpired
		}
		return nil, nil, err
	}

	token, err := p.mintToken(account, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}

	p.log.DebugContext(ctx, "session token rotated",
		slog.String("identity_id", account.ID),
		slog.String("session_id", claims.SessionID),
	)

	user := account.User()
	rotation := &identity.Rotation{
		Token:     token,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	return &user, rotation, nil
}

/*
Register creates a new customer account and mails it a signup confirmation
code.

The account starts unconfirmed; password sign-in refuses it until the signup
code is verified, which is what flips the confirmation flag. A failure to
deliver the confirmation code does not fail registration, since the code can
be re-requested from the sign-in flow.
*/
func (p *Provider) Register(ctx context.Context, email, password, displayName string) error {
	hash, err := sec.HashPassword(password)
	if err != nil {
		return err
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         identity.RoleCustomer,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return err
	}

	p.log.InfoContext(ctx, "account registered", slog.String("identity_id", account.ID))

	code, err := sec.GenerateNumericCode(OTCLength)
	if err != nil {
		return err
	}
	if err := p.codes.Set(ctx, identity.CodeKindSignup, account.Email, code, OTCTTL); err != nil {
		return err
	}
	if err := p.mailer.SendCode(ctx, account.Email, code); err != nil {
		p.log.WarnContext(ctx, "confirmation code delivery failed", slog.String("error", err.Error()))
	}
	return nil
}

/*
SignInWithPassword performs primary password authentication.

Unknown-email and wrong-password both come back as
[identity.ErrInvalidCredentials]; the password is checked against a dummy
digest when the account is missing so the two cases are also
indistinguishable by timing. An unconfirmed address fails with its own
sentinel since the remedy is confirmation, not a password retry.
*/
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			sec.CheckPasswordHash(password, dummyHash)
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, identity.ErrInvalidCredentials
	}
	if !account.EmailConfirmed {
		return nil, identity.ErrEmailNotConfirmed
	}

	return p.establishSession(ctx, account)
}

/*
SendOneTimeCode issues a fresh sign-in code and delivers it by email.

The per-address send budget is enforced first and a blown budget surfaces as
[identity.ErrRateLimited]. A delivery failure surfaces as
[identity.ErrChannelUnavailable] so the sign-in flow can offer the
password-only path. An unknown address reports success without sending
anything; the send endpoint must not confirm which addresses hold accounts.
*/
func (p *Provider) SendOneTimeCode(ctx context.Context, email string) error {
	allowed, err := p.limiter.Allow(ctx, email)
	if err != nil {
		return err
	}
	if !allowed {
		return identity.ErrRateLimited
	}

	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			p.log.DebugContext(ctx, "code requested for unknown address")
			return nil
		}
		return err
	}

	code, err := sec.GenerateNumericCode(OTCLength)
	if err != nil {
		return err
	}
	if err := p.codes.Set(ctx, identity.CodeKindEmail, account.Email, code, OTCTTL); err != nil {
		return err
	}

	if err := p.mailer.SendCode(ctx, account.Email, code); err != nil {
		return fmt.Errorf("%w: %w", identity.ErrChannelUnavailable, err)
	}
	return nil
}

/*
VerifyOneTimeCode checks a code under one specific kind interpretation.

Codes are single-use: acceptance consumes the stored code. A signup-kind
acceptance additionally confirms the account's email address, since proving
receipt of the code is exactly what confirmation asks for. A code that does
not match, has expired, or was already used is
[identity.ErrCodeExpiredOrInvalid].
*/
func (p *Provider) VerifyOneTimeCode(ctx context.Context, email, code string, kind identity.CodeKind) (*identity.Session, error) {
	ok, err := p.codes.Consume(ctx, kind, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, identity.ErrCodeExpiredOrInvalid
	}

	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, identity.ErrCodeExpiredOrInvalid
		}
		return nil, err
	}

	if kind == identity.CodeKindSignup && !account.EmailConfirmed {
		if err := p.accounts.ConfirmEmail(ctx, account.ID); err != nil {
			return nil, err
		}
		account.EmailConfirmed = true
	}

	return p.establishSession(ctx, account)
}

// SignOut revokes the session behind the given token. Unknown, malformed,
// and already-revoked tokens are all fine; sign-out is idempotent.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.VerifyToken(token)
	if claims == nil {
		// Nothing to revoke behind a token we cannot attribute.
		return nil
	}
	if err != nil && !errors.Is(err, sec.ErrTokenExpired) {
		return nil
	}

	return p.sessions.Delete(ctx, claims.SessionID)
}

// Role implements [identity.ProfileStore].
func (p *Provider) Role(ctx context.Context, identityID string) (identity.Role, error) {
	role, err := p.accounts.RoleByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return "", identity.ErrProfileNotFound
		}
		return "", err
	}
	return role, nil
}

// establishSession creates a session anchor and its first access token.
func (p *Provider) establishSession(ctx context.Context, account *Account) (*identity.Session, error) {
	sessionID := uuid.New()

	record := SessionRecord{
		AccountID: account.ID,
		CreatedAt: time.Now(),
	}
	if err := p.sessions.Set(ctx, sessionID, record); err != nil {
		return nil, err
	}

	token, err := p.mintToken(account, sessionID)
	if err != nil {
		return nil, err
	}

	p.log.InfoContext(ctx, "session established",
		slog.String("identity_id", account.ID),
		slog.String("session_id", sessionID),
	)

	return &identity.Session{
		User:      account.User(),
		Token:     token,
		ExpiresAt: time.Now().Add(SessionTTL),
	}, nil
}

func (p *Provider) mintToken(account *Account, sessionID string) (string, error) {
	return p.tokens.GenerateSessionToken(sec.SessionClaims{
		IdentityID:     account.ID,
		Email:          account.Email,
		EmailConfirmed: account.EmailConfirmed,
		SessionID:      sessionID,
	}, AccessTokenTTL)
}

func claimsUser(claims *sec.SessionClaims) identity.User {
	return identity.User{
		IdentityID:     claims.IdentityID,
		Email:          claims.Email,
		EmailConfirmed: claims.EmailConfirmed,
	}
}
