// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"fmt"

	"github.com/4nuit/mthread"
)

// CSRMatrix is a sparse matrix in compressed sparse row form, grounded
// on the original OpenMP exercise's CSRMatrix_t layout: m_ia holds
// NRows+1 row-start offsets into Values/Ja, m_ja holds the column index
// of each non-zero, and m_values its value.
type CSRMatrix struct {
	NRows  int
	NNZ    int
	Values []float64
	Ja     []int
	Ia     []int // len == NRows+1
}

// SpMV computes y = A*x, partitioning A's rows across nThreads mthread
// threads. The reference OpenMP source left mult_CSR as an unfilled
// kernel ("TODO : Kernel à compléter"); this is a from-scratch
// completion of it, row-partitioned the way the surrounding exercise's
// other kernels are parallelized.
func SpMV(a *CSRMatrix, x []float64, nThreads int) ([]float64, error) {
	if len(x) != a.NRows {
		return nil, fmt.Errorf("workloads: x has length %d, want %d", len(x), a.NRows)
	}
	if nThreads < 1 {
		nThreads = 1
	}
	if nThreads > a.NRows {
		nThreads = a.NRows
	}
	y := make([]float64, a.NRows)
	if a.NRows == 0 {
		return y, nil
	}

	rowsPerThread := a.NRows / nThreads
	remainder := a.NRows % nThreads

	ids := make([]mthread.ID, 0, nThreads)
	row := 0
	for i := 0; i < nThreads; i++ {
		n := rowsPerThread
		if i < remainder {
			n++
		}
		if n == 0 {
			continue
		}
		start, end := row, row+n
		row = end
		id, err := mthread.Create(nil, spmvRowRangeBody(a, x, y, start, end), nil)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		if _, err := mthread.Join(id); err != nil {
			return nil, err
		}
	}
	return y, nil
}

// spmvRowRangeBody computes y[start:end] from A's rows [start, end).
// Each thread owns a disjoint row range of y, so no synchronization is
// needed between threads during the parallel phase.
func spmvRowRangeBody(a *CSRMatrix, x, y []float64, start, end int) func(arg interface{}) interface{} {
	return func(arg interface{}) interface{} {
		for row := start; row < end; row++ {
			var sum float64
			for k := a.Ia[row]; k < a.Ia[row+1]; k++ {
				sum += a.Values[k] * x[a.Ja[k]]
			}
			y[row] = sum
			if row%256 == 0 {
				mthread.Yield()
			}
		}
		return nil
	}
}
