// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"fmt"
	"math"

	"github.com/4nuit/mthread"
	"github.com/4nuit/mthread/toposort"
)

// Tile is a ts-by-ts dense tile stored row-major, the Go analogue of
// the original exercise's `double *` block pointers.
type Tile []float64

// BlockedCholesky factors the symmetric positive-definite matrix
// represented by the nt-by-nt grid of ts-by-ts tiles in place, computing
// the lower-triangular factor L such that A = L*L^T. It follows the
// reference exercise's block structure (cholesky_seq: for each panel k,
// factor the diagonal tile, solve the panel below it, then update the
// trailing submatrix) — the exercise's own parallel variant,
// cholesky_par, was left as an unimplemented task-based sketch, so the
// mthread-based dispatch below is this rewrite's own completion of it
// rather than a port.
//
// A toposort.Sorter is used to record and validate the task graph: potrf
// for panel k must precede every trsm of panel k, which must precede the
// gemm/syrk updates that read it, which must precede the next panel's
// potrf. Within a panel, the trsm/gemm/syrk tasks for different tile
// rows are independent and are dispatched as concurrent mthread threads.
func BlockedCholesky(a [][]Tile, nt, ts int) error {
	if len(a) != nt {
		return fmt.Errorf("workloads: matrix has %d tile rows, want %d", len(a), nt)
	}
	for _, row := range a {
		if len(row) != nt {
			return fmt.Errorf("workloads: matrix row has %d tiles, want %d", len(row), nt)
		}
	}

	sorter := &toposort.Sorter{}
	for k := 0; k < nt; k++ {
		sorter.AddNode(potrfLabel(k))
		for i := k + 1; i < nt; i++ {
			// trsm(k, i) depends on potrf(k).
			sorter.AddEdge(trsmLabel(k, i), potrfLabel(k))
		}
		for i := k + 1; i < nt; i++ {
			// update(k, i) depends on trsm(k, i); panel i's potrf depends
			// on every update that touches its diagonal tile a[i][i].
			sorter.AddEdge(updateLabel(k, i), trsmLabel(k, i))
			sorter.AddEdge(potrfLabel(i), updateLabel(k, i))
		}
	}
	if _, cycles := sorter.Sort(); len(cycles) > 0 {
		return fmt.Errorf("workloads: cholesky task graph has a cycle: %v", cycles)
	}

	for k := 0; k < nt; k++ {
		potrfTile(a[k][k], ts)

		ids := make([]mthread.ID, 0, nt-k-1)
		for i := k + 1; i < nt; i++ {
			i := i
			id, err := mthread.Create(nil, func(arg interface{}) interface{} {
				trsmTile(a[k][k], a[i][k], ts)
				return nil
			}, nil)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			if _, err := mthread.Join(id); err != nil {
				return err
			}
		}

		ids = ids[:0]
		for i := k + 1; i < nt; i++ {
			i := i
			id, err := mthread.Create(nil, func(arg interface{}) interface{} {
				for j := k + 1; j < i; j++ {
					gemmUpdate(a[i][k], a[j][k], a[i][j], ts)
				}
				syrkUpdate(a[i][k], a[i][i], ts)
				return nil
			}, nil)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			if _, err := mthread.Join(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func potrfLabel(k int) string     { return fmt.Sprintf("potrf:%d", k) }
func trsmLabel(k, i int) string   { return fmt.Sprintf("trsm:%d:%d", k, i) }
func updateLabel(k, i int) string { return fmt.Sprintf("update:%d:%d", k, i) }

// potrfTile computes the lower-triangular Cholesky factor of a
// ts-by-ts tile in place (Cholesky-Banachiewicz), the Go stand-in for
// the reference kernel's dpotrf_ call.
func potrfTile(a Tile, ts int) {
	for j := 0; j < ts; j++ {
		sum := a[j*ts+j]
		for k := 0; k < j; k++ {
			sum -= a[j*ts+k] * a[j*ts+k]
		}
		a[j*ts+j] = math.Sqrt(sum)
		for i := j + 1; i < ts; i++ {
			sum := a[i*ts+j]
			for k := 0; k < j; k++ {
				sum -= a[i*ts+k] * a[j*ts+k]
			}
			a[i*ts+j] = sum / a[j*ts+j]
		}
	}
}

// trsmTile solves x * akk^T = aki for x in place, akk being the
// lower-triangular factor produced by potrfTile — the panel solve
// preceding the dtrsm_ call in the reference kernel.
func trsmTile(akk, aki Tile, ts int) {
	for i := 0; i < ts; i++ {
		for j := 0; j < ts; j++ {
			sum := aki[i*ts+j]
			for k := 0; k < j; k++ {
				sum -= aki[i*ts+k] * akk[j*ts+k]
			}
			aki[i*ts+j] = sum / akk[j*ts+j]
		}
	}
}

// gemmUpdate computes aji -= aki * akj^T, the trailing-submatrix update
// preceding the dgemm_ call in the reference kernel.
func gemmUpdate(aki, akj, aji Tile, ts int) {
	for i := 0; i < ts; i++ {
		for j := 0; j < ts; j++ {
			var sum float64
			for p := 0; p < ts; p++ {
				sum += aki[i*ts+p] * akj[j*ts+p]
			}
			aji[i*ts+j] -= sum
		}
	}
}

// syrkUpdate computes aii -= aki * aki^T, the symmetric diagonal update
// preceding the dsyrk_ call in the reference kernel.
func syrkUpdate(aki, aii Tile, ts int) {
	for i := 0; i < ts; i++ {
		for j := 0; j <= i; j++ {
			var sum float64
			for p := 0; p < ts; p++ {
				sum += aki[i*ts+p] * aki[j*ts+p]
			}
			aii[i*ts+j] -= sum
			if j != i {
				aii[j*ts+i] -= sum
			}
		}
	}
}
