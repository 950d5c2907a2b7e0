// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMutexCounterScenario is spec scenario 1: 64 threads each lock,
// increment, observe TryLock as busy, then unlock; final counter must
// be exactly 64.
func TestMutexCounterScenario(t *testing.T) {
	mx, err := NewMutex(nil)
	require.NoError(t, err)

	const nThreads = 64
	counter := 0
	ids := make([]ID, nThreads)
	for i := 0; i < nThreads; i++ {
		id, err := Create(nil, func(arg interface{}) interface{} {
			require.NoError(t, mx.Lock())
			counter++
			assert.Equal(t, ErrBusy, mx.TryLock())
			return mx.Unlock()
		}, nil)
		require.NoError(t, err)
		ids[i] = id
	}
	for _, id := range ids {
		ret, err := Join(id)
		require.NoError(t, err)
		assert.Nil(t, ret)
	}
	assert.Equal(t, nThreads, counter)
}

// TestMutexStaticInitCorrectness is spec scenario 5: a zero-value
// Mutex, locked by thread A, observed BUSY by thread B's TryLock, then
// available to B once A unlocks.
func TestMutexStaticInitCorrectness(t *testing.T) {
	var mx Mutex

	aHasLock := make(chan struct{})
	releaseA := make(chan struct{})
	aDone, err := Create(nil, func(arg interface{}) interface{} {
		if err := mx.Lock(); err != nil {
			return err
		}
		close(aHasLock)
		<-releaseA
		return mx.Unlock()
	}, nil)
	require.NoError(t, err)

	<-aHasLock
	assert.Equal(t, ErrBusy, mx.TryLock())
	close(releaseA)

	_, err = Join(aDone)
	require.NoError(t, err)
	assert.NoError(t, mx.TryLock())
	assert.NoError(t, mx.Unlock())
}

// TestMutexDestroyWhileBusy is part of spec scenario 6.
func TestMutexDestroyWhileBusy(t *testing.T) {
	mx, err := NewMutex(nil)
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	id, err := Create(nil, func(arg interface{}) interface{} {
		if err := mx.Lock(); err != nil {
			return err
		}
		close(locked)
		<-release
		return mx.Unlock()
	}, nil)
	require.NoError(t, err)

	<-locked
	assert.Equal(t, ErrBusy, mx.Destroy())
	close(release)
	_, err = Join(id)
	require.NoError(t, err)
	assert.NoError(t, mx.Destroy())
}

// TestMutexEveryWaiterEventuallyAcquires confirms a mutex with several
// contenders eventually hands the lock to all of them exactly once
// each, with no counter corruption from the hand-off path.
func TestMutexEveryWaiterEventuallyAcquires(t *testing.T) {
	mx, err := NewMutex(nil)
	require.NoError(t, err)

	const nThreads = 5
	var acquisitions [nThreads]int
	ids := make([]ID, nThreads)
	for i := 0; i < nThreads; i++ {
		slot := i
		id, err := Create(nil, func(arg interface{}) interface{} {
			if err := mx.Lock(); err != nil {
				return err
			}
			acquisitions[slot]++
			return mx.Unlock()
		}, nil)
		require.NoError(t, err)
		ids[i] = id
	}
	for _, id := range ids {
		_, err := Join(id)
		require.NoError(t, err)
	}
	for i, n := range acquisitions {
		assert.Equal(t, 1, n, "thread %d acquired the mutex %d times, want 1", i, n)
	}
}
