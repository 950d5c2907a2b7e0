// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workloads exercises the mthread runtime with small, realistic
// parallel programs rather than only unit tests: a Monte Carlo
// estimator, a sparse matrix-vector product, a map-reduce word count
// and a blocked Cholesky factorization.
package workloads

import (
	"math/rand"

	"github.com/4nuit/mthread"
)

// MonteCarloPi estimates π using trials samples split across nThreads
// mthread threads, each accumulating a private hit count (no shared
// mutable state during the parallel phase) that is reduced after Join.
// It is the Go-native analogue of the OpenMP program's
// #pragma omp task firstprivate(i) / taskwait structure: each task gets
// its own local_task_counts slot, summed only once every task has
// completed.
func MonteCarloPi(trials, nThreads int) (float64, error) {
	if nThreads < 1 {
		nThreads = 1
	}
	perThread := trials / nThreads
	remainder := trials % nThreads

	ids := make([]mthread.ID, nThreads)
	for i := 0; i < nThreads; i++ {
		n := perThread
		if i == nThreads-1 {
			n += remainder
		}
		seed := int64(i)*6364136223846793005 + 1442695040888963407
		id, err := mthread.Create(nil, piTrialBody(n, seed), nil)
		if err != nil {
			return 0, err
		}
		ids[i] = id
	}

	var hits int64
	for _, id := range ids {
		ret, err := mthread.Join(id)
		if err != nil {
			return 0, err
		}
		hits += ret.(int64)
	}

	if trials == 0 {
		return 0, nil
	}
	return 4 * float64(hits) / float64(trials), nil
}

func piTrialBody(n int, seed int64) func(arg interface{}) interface{} {
	return func(arg interface{}) interface{} {
		rng := rand.New(rand.NewSource(seed))
		var localHits int64
		for k := 0; k < n; k++ {
			x, y := rng.Float64(), rng.Float64()
			if x*x+y*y <= 1 {
				localHits++
			}
			if k%4096 == 0 {
				mthread.Yield()
			}
		}
		return localHits
	}
}
