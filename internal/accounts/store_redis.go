// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package accounts

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
)

// # One-Time Codes

// CodeStore keeps issued one-time codes in Redis, keyed by kind and email.
// A code is single-use: a successful consume deletes it.
type CodeStore struct {
	client *redis.Client
}

// NewCodeStore creates a CodeStore.
func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func codeKey(kind identity.CodeKind, email string) string {
	return constants.RedisPrefixOTC + string(kind) + ":" + email
}

// Set stores a freshly issued code, replacing any previous one of the same
// kind for this address.
func (store *CodeStore) Set(ctx context.Context, kind identity.CodeKind, email, code string, ttl time.Duration) error {
	if err := store.client.Set(ctx, codeKey(kind, email), code, ttl).Err(); err != nil {
		return fmt.Errorf("accounts: storing code: %w", err)
	}
	return nil
}

/*
Consume checks a submitted code against the stored one for the given kind.

On a match the stored code is deleted, so it cannot be replayed. A mismatch
leaves the stored code in place; a typo must not burn the real code. Returns
false when no code exists, it has expired, or the values differ.
*/
func (store *CodeStore) Consume(ctx context.Context, kind identity.CodeKind, email, code string) (bool, error) {
	key := codeKey(kind, email)

	stored, err := store.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("accounts: reading code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if err := store.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("accounts: consuming code: %w", err)
	}
	return true, nil
}

// # Send Limiting

// SendLimiter is a fixed-window counter bounding code delivery per address.
// The window starts at the first send and is not sliding.
type SendLimiter struct {
	client *redis.Client
	window time.Duration
	max    int64
}

// NewSendLimiter creates a SendLimiter allowing max sends per window.
func NewSendLimiter(client *redis.Client, window time.Duration, max int64) *SendLimiter {
	return &SendLimiter{client: client, window: window, max: max}
}

// Allow records one send attempt for the address and reports whether it is
// within the window's budget. The attempt counts even when denied.
func (limiter *SendLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := constants.RedisPrefixOTCLimit + email

	count, err := limiter.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("accounts: send limiter: %w", err)
	}
	if count == 1 {
		if err := limiter.client.Expire(ctx, key, limiter.window).Err(); err != nil {
			return false, fmt.Errorf("accounts: send limiter expiry: %w", err)
		}
	}

	return count <= limiter.max, nil
}

// # Session Anchors

// SessionRecord is the server-side anchor for one login. Access tokens
// reference it by session id; deleting the record revokes the login even if
// unexpired tokens are still in the wild beyond their short lifetime.
type SessionRecord struct {
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps session anchors in Redis.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

// Set stores a session anchor for the full session lifetime.
func (store *SessionStore) Set(ctx context.Context, sessionID string, record SessionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("accounts: encoding session: %w", err)
	}

	if err := store.client.Set(ctx, sessionKey(sessionID), payload, SessionTTL).Err(); err != nil {
		return fmt.Errorf("accounts: storing session: %w", err)
	}
	return nil
}

// Get retrieves a session anchor. A missing or expired anchor yields
// identity.ErrSessionExpired.
func (store *SessionStore) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	payload, err := store.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, identity.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: reading session: %w", err)
	}

	var record SessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("accounts: decoding session: %w", err)
	}
	return &record, nil
}

// Delete removes a session anchor. Deleting an unknown anchor is not an error.
func (store *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := store.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("accounts: deleting session: %w", err)
	}
	return nil
}
