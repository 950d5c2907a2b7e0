// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonteCarloPi(t *testing.T) {
	estimate, err := MonteCarloPi(1<<18, 8)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, estimate, 0.02)
}

func TestMonteCarloPiSingleThread(t *testing.T) {
	estimate, err := MonteCarloPi(1<<16, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, estimate, 0.05)
}

func TestMonteCarloPiZeroTrials(t *testing.T) {
	estimate, err := MonteCarloPi(0, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, estimate)
}
