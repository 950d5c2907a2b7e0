// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSemaphoreRejectsZero(t *testing.T) {
	_, err := NewSemaphore(0)
	assert.Equal(t, ErrInvalid, err)
}

// TestSemaphoreBoundedSectionScenario is spec scenario 2: a semaphore
// bounded at 2 guarding a section entered by 5 threads.
func TestSemaphoreBoundedSectionScenario(t *testing.T) {
	sem, err := NewSemaphore(2)
	require.NoError(t, err)

	const nThreads = 5
	counter := 0
	ids := make([]ID, nThreads)
	for i := 0; i < nThreads; i++ {
		id, err := Create(nil, func(arg interface{}) interface{} {
			if err := sem.Wait(); err != nil {
				return err
			}
			counter++
			return sem.Post()
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
	got, err := sem.GetValue()
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

// TestSemaphoreGetValueAfterKWaits is the rest of spec scenario 2: after
// k waits and before any matching post, GetValue must read 2-k.
func TestSemaphoreGetValueAfterKWaits(t *testing.T) {
	sem, err := NewSemaphore(2)
	require.NoError(t, err)

	for k := 0; k <= 2; k++ {
		got, err := sem.GetValue()
		require.NoError(t, err)
		assert.Equal(t, 2-k, got)
		if k < 2 {
			require.NoError(t, sem.Wait())
		}
	}
	// A third TryWait must observe BUSY: both units are checked out.
	assert.Equal(t, ErrBusy, sem.TryWait())
}

// TestSemaphoreDestroyWhileBusy is part of spec scenario 6.
func TestSemaphoreDestroyWhileBusy(t *testing.T) {
	sem, err := NewSemaphore(1)
	require.NoError(t, err)

	require.NoError(t, sem.Wait())
	assert.Equal(t, ErrBusy, sem.Destroy())
	require.NoError(t, sem.Post())
	assert.NoError(t, sem.Destroy())
}

func TestSemaphoreNeverExceedsMax(t *testing.T) {
	sem, err := NewSemaphore(3)
	require.NoError(t, err)
	require.NoError(t, sem.Post())
	require.NoError(t, sem.Post())
	got, err := sem.GetValue()
	require.NoError(t, err)
	assert.Equal(t, 3, got, "Post past max must saturate, not overflow")
}
