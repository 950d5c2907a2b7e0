// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"fmt"
	"sync"

	"github.com/4nuit/mthread"
)

// BoundedSection runs nThreads threads, each of which waits on a
// semaphore bounded at max concurrent holders, increments a shared
// counter while inside the bounded section, then posts. It returns the
// final counter (which must equal nThreads) and the semaphore's value
// once every thread has completed (which must equal max).
func BoundedSection(max uint32, nThreads int) (counter int, finalValue uint32, err error) {
	sem, err := mthread.NewSemaphore(max)
	if err != nil {
		return 0, 0, err
	}
	var mu sync.Mutex

	ids := make([]mthread.ID, nThreads)
	for i := 0; i < nThreads; i++ {
		id, err := mthread.Create(nil, func(arg interface{}) interface{} {
			if err := sem.Wait(); err != nil {
				return err
			}
			mu.Lock()
			counter++
			mu.Unlock()
			return sem.Post()
		}, nil)
		if err != nil {
			return 0, 0, err
		}
		ids[i] = id
	}

	for _, id := range ids {
		ret, err := mthread.Join(id)
		if err != nil {
			return 0, 0, err
		}
		if ret != nil {
			return 0, 0, ret.(error)
		}
	}

	got, err := sem.GetValue()
	if err != nil {
		return 0, 0, err
	}
	finalValue = uint32(got)
	if finalValue != max {
		return counter, finalValue, fmt.Errorf("workloads: semaphore settled at %d, want %d", finalValue, max)
	}
	return counter, finalValue, nil
}

// SemaphoreDestroyWhileBusy confirms sem_destroy returns ErrBusy after
// one Wait and before its matching Post, and confirms GetValue reports
// max-1 after that one Wait.
func SemaphoreDestroyWhileBusy(max uint32) error {
	sem, err := mthread.NewSemaphore(max)
	if err != nil {
		return err
	}
	if err := sem.Wait(); err != nil {
		return err
	}
	if got, err := sem.GetValue(); err != nil {
		return err
	} else if uint32(got) != max-1 {
		return fmt.Errorf("workloads: GetValue after one Wait = %d, want %d", got, max-1)
	}
	if err := sem.Destroy(); err != mthread.ErrBusy {
		return fmt.Errorf("workloads: Destroy after an outstanding Wait returned %v, want ErrBusy", err)
	}
	if err := sem.Post(); err != nil {
		return err
	}
	return sem.Destroy()
}
