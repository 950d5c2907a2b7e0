// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import "github.com/4nuit/mthread/mlog"

// Semaphore is a counting semaphore bounded by max, grounded on the
// original library's mthread_sem_t: Post hands off directly to a
// waiting thread without touching value when the waiter list is
// non-empty, and otherwise increments value, saturating at max.
type Semaphore struct {
	spin    spinlock
	max     uint32
	value   uint32
	waiters list
}

// NewSemaphore creates a Semaphore with the given initial value, which
// also becomes its saturation ceiling. value == 0 is rejected with
// ErrInvalid, matching mthread_sem_init (spec.md §9's Open Question
// decision: a semaphore that can never be posted above zero is
// considered a usage error, not a valid always-blocking semaphore).
func NewSemaphore(value uint32) (*Semaphore, error) {
	if value == 0 {
		return nil, ErrInvalid
	}
	return &Semaphore{max: value, value: value}, nil
}

// Wait blocks until s's value is positive, then decrements it (or, on
// a hand-off from Post, returns having "received" the post without s's
// value ever having moved).
func (s *Semaphore) Wait() error {
	if s == nil {
		return ErrInvalid
	}
	mlog.Event("SEM WAIT", "waiting")
	s.spin.lock()
	if s.value > 0 {
		s.value--
		s.spin.unlock()
		mlog.Event("SEM WAIT", "acquired uncontended")
		return nil
	}

	self := Self()
	d := mustDescriptor(self)
	s.waiters.insertLast(self)
	d.setStatus(Blocked)
	d.vp.pendingRelease = &s.spin
	d.vp.yieldCore(false, self, d.wake)

	mlog.Event("SEM WAIT", "acquired after hand-off")
	return nil
}

// TryWait acquires s without blocking, or returns ErrBusy.
func (s *Semaphore) TryWait() error {
	if s == nil {
		return ErrInvalid
	}
	s.spin.lock()
	defer s.spin.unlock()
	if s.value == 0 {
		return ErrBusy
	}
	s.value--
	return nil
}

// Post increments s's value, or wakes the head of s's waiter list if
// one exists (in which case value is left untouched: the waiter
// receives the unit of the post directly, as in the original source).
func (s *Semaphore) Post() error {
	if s == nil {
		return ErrInvalid
	}
	mlog.Event("SEM POST", "posting")
	s.spin.lock()
	if !s.waiters.isEmpty() {
		first := s.waiters.removeFirst()
		target := wakerVP()
		if target == nil {
			target = mustDescriptor(first).vp
		}
		target.insertReady(first)
	} else {
		s.value++
		if s.value > s.max {
			s.value = s.max
		}
	}
	s.spin.unlock()
	mlog.Event("SEM POST", "posted")
	return nil
}

// GetValue returns s's current value.
func (s *Semaphore) GetValue() (int, error) {
	if s == nil {
		return 0, ErrInvalid
	}
	s.spin.lock()
	defer s.spin.unlock()
	return int(s.value), nil
}

// Destroy reports ErrBusy unless s's value is back at its initial
// maximum (no thread currently holds a unit of it), matching
// mthread_sem_destroy.
func (s *Semaphore) Destroy() error {
	if s == nil {
		return ErrInvalid
	}
	s.spin.lock()
	defer s.spin.unlock()
	if s.value != s.max {
		return ErrBusy
	}
	return nil
}
