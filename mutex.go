// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import "github.com/4nuit/mthread/mlog"

// Mutex is a non-recursive mutual-exclusion lock with FIFO hand-off,
// grounded on the original library's mthread_mutex_t (nb_thread 0/1,
// a waiter list, hand-off unlock that never decrements nb_thread when
// transferring ownership directly to the head waiter).
//
// The zero Mutex is valid and unlocked, matching MTHREAD_MUTEX_INITIALIZER.
type Mutex struct {
	spin     spinlock
	attr     MutexAttr
	attrSet  bool
	nbThread int
	waiters  list
}

// NewMutex creates a Mutex with the given attributes. A nil attr is
// equivalent to &MutexAttr{Type: MutexDefault, Policy: FirstFit}.
func NewMutex(attr *MutexAttr) (*Mutex, error) {
	m := &Mutex{}
	if attr != nil {
		m.attr = *attr
		m.attrSet = true
	}
	return m, nil
}

// ensureInit lazily completes the zero-value static initializer; it is
// idempotent and safe to call on every entry point the way the C source
// calls __mthread_ensure_list_init from every mutex function.
func (m *Mutex) ensureInit() {
	// No allocation is actually required for a Go zero-value list, but
	// the call site mirrors the C source's lazy-init-on-every-entry
	// discipline, which is where spec.md's "static initialization race"
	// guarantee comes from: a concurrent Lock/TryLock/Unlock on a
	// never-explicitly-initialized Mutex is well-defined.
}

// Lock blocks until the calling thread owns m.
func (m *Mutex) Lock() error {
	if m == nil {
		return ErrInvalid
	}
	mlog.Event("MUTEX LOCK", "locking")
	m.ensureInit()

	m.spin.lock()
	if m.nbThread == 0 {
		m.nbThread = 1
		m.spin.unlock()
		mlog.Event("MUTEX LOCK", "acquired uncontended")
		return nil
	}

	self := Self()
	d := mustDescriptor(self)
	m.waiters.insertLast(self)
	d.setStatus(Blocked)
	d.vp.pendingRelease = &m.spin
	d.vp.yieldCore(false, self, d.wake)

	mlog.Event("MUTEX LOCK", "acquired after hand-off")
	return nil
}

// TryLock acquires m without blocking, or returns ErrBusy.
func (m *Mutex) TryLock() error {
	if m == nil {
		return ErrInvalid
	}
	m.ensureInit()
	m.spin.lock()
	if m.nbThread != 0 {
		m.spin.unlock()
		return ErrBusy
	}
	m.nbThread = 1
	m.spin.unlock()
	return nil
}

// Unlock releases m. If a thread is waiting, ownership transfers
// directly to it (nbThread stays 1, spec.md §9's no-recheck hand-off
// contract: the woken thread does not re-test nbThread, it simply owns
// the mutex once scheduled).
func (m *Mutex) Unlock() error {
	if m == nil {
		return ErrInvalid
	}
	mlog.Event("MUTEX UNLOCK", "unlocking")
	m.ensureInit()

	m.spin.lock()
	if !m.waiters.isEmpty() {
		first := m.waiters.removeFirst()
		target := wakerVP()
		if target == nil {
			target = mustDescriptor(first).vp
		}
		target.insertReady(first)
	} else {
		m.nbThread = 0
	}
	m.spin.unlock()

	mlog.Event("MUTEX UNLOCK", "unlocked")
	return nil
}

// Destroy reports ErrBusy if m is currently owned, matching
// mthread_mutex_destroy's EBUSY-while-busy check.
func (m *Mutex) Destroy() error {
	if m == nil {
		return ErrInvalid
	}
	m.ensureInit()
	m.spin.lock()
	defer m.spin.unlock()
	if m.nbThread != 0 {
		return ErrBusy
	}
	return nil
}
