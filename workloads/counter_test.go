// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexCounter(t *testing.T) {
	counter, err := MutexCounter(32)
	require.NoError(t, err)
	assert.Equal(t, 32, counter)
}

func TestMutexCounterSingleThread(t *testing.T) {
	counter, err := MutexCounter(1)
	require.NoError(t, err)
	assert.Equal(t, 1, counter)
}

func TestMutexDestroyWhileBusy(t *testing.T) {
	assert.NoError(t, MutexDestroyWhileBusy())
}
