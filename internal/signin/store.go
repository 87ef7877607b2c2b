// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package signin

import (
	"sync"
	"time"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/apperr"
	"github.com/cadenza-music/cadenza/pkg/uuid"
)

// attemptTTL is how long an idle attempt survives before the store drops it.
const attemptTTL = 15 * time.Minute

// maxCatchUpTicks caps how many timer seconds a single access replays for an
// attempt nobody touched in a while.
const maxCatchUpTicks = 120

// Store holds in-flight sign-in attempts in process memory. An attempt lives
// for one interactive login and carries a plaintext password while active, so
// it deliberately never touches shared storage; losing attempts on restart
// only means the user starts the form over.
//
// # Concurrency
//
// The login form polls the attempt for its countdown timers while the user
// may simultaneously submit a transition, so concurrent access to one attempt
// is the normal case. Each stored attempt carries its own lock; every read
// and every transition runs under it, and callers only ever receive value
// snapshots, never the live pointer.
type Store struct {
	mu       sync.Mutex
	attempts map[string]*storedAttempt
	done     chan struct{}
}

type storedAttempt struct {
	mu       sync.Mutex
	attempt  *Attempt
	lastTick time.Time

	// expires is guarded by Store.mu, not by mu, so the sweeper never has
	// to take per-attempt locks.
	expires time.Time
}

// NewStore builds a Store and starts its expiry sweeper. Call Close on
// shutdown to stop the sweeper.
func NewStore() *Store {
	s := &Store{
		attempts: make(map[string]*storedAttempt),
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Create registers a fresh attempt and returns a snapshot of it.
func (s *Store) Create(returnPath string) Attempt {
	a := NewAttempt(uuid.New(), returnPath)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[a.ID] = &storedAttempt{
		attempt:  a,
		lastTick: now,
		expires:  now.Add(attemptTTL),
	}
	return a.snapshot()
}

/*
With runs fn against the attempt with the given id, under the attempt's lock.

Before fn runs, the attempt's timers are advanced by the whole seconds
elapsed since the previous access: the cooldown and reset counters are
defined as one-second ticks, and replaying elapsed seconds on access keeps
them honest without a per-attempt timer goroutine.

Returns a snapshot of the attempt as it stood when the lock was released,
safe to render concurrently with later transitions. A not-found error is
returned when the id is unknown or expired; an error from fn is returned
as-is and the snapshot is zero.
*/
func (s *Store) With(id string, fn func(*Attempt) error) (Attempt, error) {
	now := time.Now()

	s.mu.Lock()
	stored, ok := s.attempts[id]
	if !ok || now.After(stored.expires) {
		delete(s.attempts, id)
		s.mu.Unlock()
		return Attempt{}, apperr.NotFound("Sign-in attempt")
	}
	stored.expires = now.Add(attemptTTL)
	s.mu.Unlock()

	stored.mu.Lock()
	defer stored.mu.Unlock()

	ticks := int(now.Sub(stored.lastTick) / time.Second)
	if ticks > maxCatchUpTicks {
		ticks = maxCatchUpTicks
	}
	for i := 0; i < ticks; i++ {
		stored.attempt.Tick()
	}
	stored.lastTick = stored.lastTick.Add(time.Duration(ticks) * time.Second)

	if fn != nil {
		if err := fn(stored.attempt); err != nil {
			return Attempt{}, err
		}
	}

	return stored.attempt.snapshot(), nil
}

// Get returns a snapshot of the attempt with the given id, timers advanced.
func (s *Store) Get(id string) (Attempt, error) {
	return s.With(id, nil)
}

// Delete removes an attempt, typically once it completed and its session
// cookie has been written.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
}

// Close stops the expiry sweeper.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, stored := range s.attempts {
				if now.After(stored.expires) {
					delete(s.attempts, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// snapshot returns a value copy safe to hand outside the attempt's lock.
// The kinds slice is copied; everything else is plain data.
func (a *Attempt) snapshot() Attempt {
	snap := *a
	if a.KindsTried != nil {
		snap.KindsTried = append([]identity.CodeKind(nil), a.KindsTried...)
	}
	return snap
}
