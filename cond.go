// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import "github.com/4nuit/mthread/mlog"

// CV is a condition variable used together with a *Mutex, grounded on
// the original library's mthread_cond_t and cross-checked against
// nsync's CV for its spinlock-protected enqueue/wakeWaiters structure.
// Unlike nsync's CV, Wait is typed to this package's own Mutex rather
// than a generic locker, matching mthread_cond_wait's direct call to
// mthread_mutex_unlock/mthread_mutex_lock.
type CV struct {
	spin    spinlock
	waiters list
}

// NewCV creates a CV with the given (inert) attributes.
func NewCV(attr *CondAttr) (*CV, error) {
	return &CV{}, nil
}

// Wait atomically unlocks m and blocks the calling thread until Signal
// or Broadcast wakes it, then relocks m before returning. m must be
// locked by the calling thread on entry.
//
// The enqueue happens before m is unlocked, under c's spinlock, so a
// concurrent Signal/Broadcast can never observe the waiter list as
// empty and miss this waiter (the lost-wakeup race cond_wait exists to
// avoid). If unlocking m fails, the enqueue is rolled back and the
// calling thread never blocks, matching the original source's rollback
// path; since this package's Mutex.Unlock cannot itself fail, that path
// is unreachable here but is kept for fidelity to mthread_cond_wait and
// in case a future Mutex variant can return an error from Unlock.
func (c *CV) Wait(m *Mutex) error {
	if c == nil || m == nil {
		return ErrInvalid
	}
	mlog.Event("COND WAIT", "waiting")

	self := Self()
	d := mustDescriptor(self)

	c.spin.lock()
	d.setStatus(Blocked)
	d.vp.pendingRelease = &c.spin
	c.waiters.insertLast(self)

	if err := m.Unlock(); err != nil {
		c.waiters.removeLast()
		d.setStatus(Running)
		d.vp.pendingRelease = nil
		c.spin.unlock()
		mlog.Eventf("COND WAIT", "rollback: mutex unlock failed: %v", err)
		return err
	}

	// c.spin is released automatically by whichever thread this VP
	// switches to next (the pending-release protocol set up above),
	// not here: releasing it manually before yieldCore would reopen
	// the lost-wakeup window this whole sequence exists to close.
	d.vp.yieldCore(false, self, d.wake)

	mlog.Event("COND WAIT", "woken, relocking mutex")
	return m.Lock()
}

// Signal wakes one thread waiting on c, if any.
func (c *CV) Signal() error {
	if c == nil {
		return ErrInvalid
	}
	mlog.Event("COND SIGNAL", "signaling")
	c.spin.lock()
	first := c.waiters.removeFirst()
	if first == 0 {
		c.spin.unlock()
		mlog.Event("COND SIGNAL", "no waiter")
		return nil
	}
	target := wakerVP()
	if target == nil {
		target = mustDescriptor(first).vp
	}
	target.insertReady(first)
	c.spin.unlock()
	mlog.Event("COND SIGNAL", "signaled")
	return nil
}

// Broadcast wakes every thread waiting on c.
func (c *CV) Broadcast() error {
	if c == nil {
		return ErrInvalid
	}
	mlog.Event("COND BROADCAST", "broadcasting")
	c.spin.lock()
	ids := c.waiters.removeAll()
	target := wakerVP()
	for _, id := range ids {
		t := target
		if t == nil {
			t = mustDescriptor(id).vp
		}
		t.insertReady(id)
	}
	c.spin.unlock()
	mlog.Eventf("COND BROADCAST", "woke %d waiters", len(ids))
	return nil
}

// Destroy reports ErrBusy if any thread is currently waiting on c.
func (c *CV) Destroy() error {
	if c == nil {
		return ErrInvalid
	}
	c.spin.lock()
	defer c.spin.unlock()
	if !c.waiters.isEmpty() {
		return ErrBusy
	}
	return nil
}
