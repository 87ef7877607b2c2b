// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package signin_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-music/cadenza/internal/signin"
)

/*
TestStore_CreateGetDelete covers the attempt lifecycle.
*/
func TestStore_CreateGetDelete(t *testing.T) {
	store := signin.NewStore()
	defer store.Close()

	created := store.Create("/checkout")
	require.NotEmpty(t, created.ID)
	assert.Equal(t, signin.StageCollectingPassword, created.Stage)
	assert.Equal(t, "/checkout", created.ReturnPath)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "/checkout", got.ReturnPath)

	store.Delete(created.ID)
	_, err = store.Get(created.ID)
	assert.Error(t, err)
}

/*
TestStore_UnknownID verifies the not-found path.
*/
func TestStore_UnknownID(t *testing.T) {
	store := signin.NewStore()
	defer store.Close()

	_, err := store.Get("nope")
	assert.Error(t, err)
}

/*
TestStore_SnapshotsAreIsolated verifies that a returned attempt is a value
copy: mutating the copy must not leak into the stored attempt.
*/
func TestStore_SnapshotsAreIsolated(t *testing.T) {
	store := signin.NewStore()
	defer store.Close()

	created := store.Create("")

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	got.Notice = signin.NoticeSignInFailed
	got.Stage = signin.StageComplete

	fresh, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, signin.StageCollectingPassword, fresh.Stage)
	assert.Equal(t, signin.NoticeNone, fresh.Notice)
}

/*
TestStore_ConcurrentPollAndTransition exercises the shape of real traffic:
the login form polls the attempt for its countdown timers while a submission
mutates the same attempt. Every mutation goes through With, every read
returns a snapshot, and the race detector must stay quiet.
*/
func TestStore_ConcurrentPollAndTransition(t *testing.T) {
	store := signin.NewStore()
	defer store.Close()

	created := store.Create("/dashboard")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap, err := store.Get(created.ID)
				if err != nil {
					return
				}
				// Reading snapshot fields must always be safe.
				_ = snap.Stage
				_ = snap.Notice
				_ = snap.ResendCooldownSeconds
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := store.With(created.ID, func(a *signin.Attempt) error {
					a.Stage = signin.StageAwaitingOTC
					a.ResendCooldownSeconds = 60
					a.Notice = signin.NoticeNone
					a.Stage = signin.StageCollectingPassword
					return nil
				})
				if err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	final, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, signin.StageCollectingPassword, final.Stage)
}
