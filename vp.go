// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"runtime"

	"github.com/4nuit/mthread/mlog"
)

// virtualProcessor is the VP of spec.md §3/§4.4: a single serialized
// stream of execution that hands itself from one descriptor's goroutine
// to the next. Exactly one goroutine is ever "live" (not parked on its
// own wake channel) per VP. Its ready queue still has a lock of its own,
// readyLock, because Create and wakeups issued from outside any thread
// enqueue onto a VP they do not hold; a wakeup issued by a thread targets
// that thread's own VP
// (spec.md §4.4, "this spec permits the waker's own VP for simplicity").
//
// A VP is pinned to a single OS thread via runtime.LockOSThread in its
// idle loop, so that "virtual processor" genuinely corresponds to a
// kernel-backed stream of execution rather than to an arbitrary spot in
// the Go scheduler's goroutine pool.
type virtualProcessor struct {
	index int

	// readyLock guards ready. Every *other* list in this package (a
	// Mutex/Semaphore/CV waiter list) is touched only by whoever holds
	// that primitive's own spinlock, which already serializes access.
	// The ready queue is different: Create and any wakeup that targets a
	// VP other than the waker's own (this package always targets the
	// waker's own VP, but Create must be able to target an arbitrary
	// VP from any caller) can race with the VP's current occupant
	// popping its next thread, so it gets a lock of its own.
	readyLock spinlock
	ready     list

	// pendingRelease is the spinlock protocol of spec.md §4.4 step 4: a
	// blocking algorithm that enqueues itself and yields in one logical
	// step leaves the spinlock it was holding for this VP to release,
	// on its behalf, immediately after the next thread starts running.
	pendingRelease *spinlock

	// idleWake is the channel the VP's idle loop parks on between
	// handing off the CPU and getting it back (e.g. because every
	// thread it dispatched eventually blocks or terminates and control
	// must return to idle to wait for more work).
	idleWake chan struct{}
}

func newVirtualProcessor(index int) *virtualProcessor {
	return &virtualProcessor{
		index:    index,
		idleWake: make(chan struct{}, 1),
	}
}

// takePendingRelease clears and returns vp's pending spinlock release, if
// any. Called by whichever goroutine just won the CPU on vp, before it
// does anything else.
func (vp *virtualProcessor) takePendingRelease() *spinlock {
	sl := vp.pendingRelease
	vp.pendingRelease = nil
	return sl
}

// afterResume performs spec.md §4.4 step 4 for the goroutine that just
// won vp's CPU.
func (vp *virtualProcessor) afterResume() {
	if sl := vp.takePendingRelease(); sl != nil {
		sl.unlock()
	}
}

// switchToIdle hands the CPU to vp's idle loop: the degenerate case of
// spec.md §4.4 step 3 where there is no runnable descriptor to switch to,
// only the VP itself waiting for new work. Unlike switchTo, there is no
// descriptor to mark Running; the idle loop's own pending yieldCore call
// (parked on vp.idleWake since it last switched away from here) is what
// resumes and, in turn, runs afterResume on the caller's behalf.
func (vp *virtualProcessor) switchToIdle() {
	mlog.Eventf("switch", "vp=%d -> idle", vp.index)
	vp.idleWake <- struct{}{}
}

// switchTo performs spec.md §4.4 step 3: grant the CPU to next by
// transitioning it to RUNNING and signaling its wake channel. The
// caller must park on its own wake channel immediately afterward; it is
// not done here because idle-loop callers and descriptor callers park on
// different channels.
//
// A thread's descriptor records the VP it is currently running on, not
// a fixed "home" VP: because wakeups enqueue onto the waker's own VP
// (spec.md §4.4), a thread can resume on a different VP than the one it
// blocked on. switchTo is the single place that migration becomes
// visible, so it is also the single place that updates d.vp.
func (vp *virtualProcessor) switchTo(next ID) {
	d := mustDescriptor(next)
	d.vp = vp
	d.setStatus(Running)
	mlog.Eventf("switch", "vp=%d -> thread=%d", vp.index, next)
	d.wake <- struct{}{}
}

// insertReady enqueues id onto vp's ready queue and marks it READY. It
// is safe to call from any goroutine, including ones not currently
// holding vp (Create, and a terminating thread waking its joiner).
func (vp *virtualProcessor) insertReady(id ID) {
	vp.readyLock.lock()
	mustDescriptor(id).setStatus(Ready)
	vp.ready.insertLast(id)
	vp.readyLock.unlock()
}

// yieldCore implements the Yield algorithm of spec.md §4.4 from the
// point of view of whoever currently holds vp's CPU.
//
// selfRunning is true when the caller is a normal thread voluntarily
// yielding while still RUNNING (the fast-path case); it is false when
// the caller has already transitioned to BLOCKED or TERMINATED (the
// caller must have already unlinked/relinked itself into whatever list
// reflects that, e.g. a primitive's waiter list), or when the caller is
// a VP's idle loop (which is never itself schedulable).
//
// selfID/selfWake identify who to resume once it is this caller's turn
// again; for the idle loop, selfID is 0 and selfWake is vp.idleWake.
func (vp *virtualProcessor) yieldCore(selfRunning bool, selfID ID, selfWake chan struct{}) {
	for {
		vp.readyLock.lock()
		if vp.ready.isEmpty() {
			vp.readyLock.unlock()
			if selfRunning {
				return // fast path: nothing else is runnable.
			}
			if selfID == 0 {
				// The idle loop itself is the caller: there is no
				// successor to hand the CPU to, so back off and check
				// again. Gosched lets the Go scheduler run other
				// goroutines (e.g. a VP idle loop pinned elsewhere)
				// instead of needlessly burning the pinned OS thread.
				spinDelayYield()
				continue
			}
			// A genuine thread is blocking, terminating, or yielding
			// with nothing else runnable on this VP: hand the CPU to
			// the idle loop rather than spinning while still holding
			// any pending spinlock release. The idle loop's resumed
			// yieldCore call runs afterResume on our behalf once it
			// wins the CPU back, which is what lets a waker (e.g.
			// Mutex.Unlock) that is spinning on that same spinlock make
			// progress instead of deadlocking against an idling VP.
			vp.switchToIdle()
			<-selfWake
			vp.afterResume()
			return
		}
		next := vp.ready.removeFirst()
		if selfRunning {
			mustDescriptor(selfID).setStatus(Ready)
			vp.ready.insertLast(selfID)
		}
		vp.readyLock.unlock()
		vp.switchTo(next)
		<-selfWake
		vp.afterResume()
		return
	}
}

// spinDelayYield backs off the idle-spin with the Go runtime scheduler
// rather than a busy CAS loop, since there is no atomic word to retry
// here, just an empty list to wait out.
func spinDelayYield() {
	runtime.Gosched()
}

// idleLoop is the body of the goroutine that represents vp when no
// descriptor is running on it. It is started once per VP at runtime
// start-up and never exits; it exists purely to give the "nothing is
// runnable yet" state an actual goroutine to spin in, pinned to its own
// OS thread the same way a real VP would be.
func (vp *virtualProcessor) idleLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		vp.yieldCore(false, 0, vp.idleWake)
	}
}
