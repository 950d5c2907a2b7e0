// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"sync/atomic"

	"github.com/4nuit/mthread/mlog"
	"github.com/4nuit/mthread/set"
)

// ID identifies a thread. The zero ID is never issued by Create and is
// used internally to mean "no thread" (e.g. a descriptor with no joiner).
//
// Per the design note in spec.md §9, descriptors are kept in a
// process-wide arena keyed by ID rather than linked by raw pointer: a
// waiter "list" stores IDs, and status is the sole authoritative record
// of which list (if any) a thread logically belongs to.
type ID uint32

// Status is the lifecycle state of a thread.
type Status int

const (
	// Ready means the thread is runnable and sitting in some
	// VirtualProcessor's ready queue (or about to be).
	Ready Status = iota
	// Running means the thread currently holds its VirtualProcessor.
	Running
	// Blocked means the thread is queued on a Mutex, Semaphore or CV
	// waiter list.
	Blocked
	// Terminated means the thread's start function has returned; its
	// descriptor survives until a successful Join.
	Terminated
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// ThreadAttr holds the (inert) thread creation attributes named in
// spec.md §4.3/§6. None of them change scheduling behavior; they exist
// so callers migrating from the original C API have somewhere to put
// them.
type ThreadAttr struct {
	// StackSize is advisory only: Go's goroutine stacks grow and
	// shrink on their own.
	StackSize int
}

// descriptor is the ThreadDescriptor of spec.md §3.
type descriptor struct {
	id     ID
	status uint32 // Status, read/written atomically
	vp     *virtualProcessor

	fn  func(arg interface{}) interface{}
	arg interface{}
	ret interface{}

	joiner ID   // scheduled thread blocked in Join on this descriptor, or 0
	joined bool // true once some caller has committed to joining this id

	// doneCh is closed exactly once, by terminateSelf. It lets a caller
	// that is not itself an mthread thread (e.g. the program's original
	// goroutine, which never went through Create) join without needing
	// a VP to yield from; threads that do belong to a VP instead go
	// through the usual scheduled wakeup via joiner, for fairness
	// against that VP's other ready work.
	doneCh chan struct{}

	// wake is this descriptor's half of the scheduler hand-off protocol:
	// another thread (or the VP's idle loop) sends on wake to grant this
	// descriptor the CPU; this descriptor's own goroutine is the only
	// reader. It is the same mechanism nsync's binarySemaphore uses to
	// park and resume a goroutine, generalized here into the unit of
	// schedulable work.
	wake chan struct{}

	// listPrev/listNext link this descriptor into at most one list at a
	// time (a VP ready queue or a primitive's waiter list), per the
	// ownership invariant in spec.md §3.
	listPrev, listNext ID
}

func (d *descriptor) getStatus() Status {
	return Status(atomic.LoadUint32(&d.status))
}

func (d *descriptor) setStatus(s Status) {
	atomic.StoreUint32(&d.status, uint32(s))
}

// --------------------------------------------------------------------
// The arena: a process-wide table of live descriptors, guarded by a
// spinlock (bounded, non-suspending work only, per spec.md §3).

var (
	arenaLock  spinlock
	arenaTable = make(map[ID]*descriptor)
	arenaIDs   = make(map[uint32]struct{}) // live ids, for LiveIDs
	nextID     uint32
)

func newID() ID {
	for {
		id := atomic.AddUint32(&nextID, 1)
		if id != 0 {
			return ID(id)
		}
		// wrapped past 2^32-1 back to 0: retry, 0 is reserved.
	}
}

func arenaPut(d *descriptor) {
	arenaLock.lock()
	arenaTable[d.id] = d
	arenaIDs[uint32(d.id)] = struct{}{}
	arenaLock.unlock()
}

// arenaLookup returns the descriptor for id, or nil if id is unknown or
// has already been joined and freed.
func arenaLookup(id ID) *descriptor {
	arenaLock.lock()
	d := arenaTable[id]
	arenaLock.unlock()
	return d
}

// arenaRemove frees id's descriptor, e.g. after a successful Join.
func arenaRemove(id ID) {
	arenaLock.lock()
	delete(arenaTable, id)
	delete(arenaIDs, uint32(id))
	arenaLock.unlock()
}

// LiveIDs returns the ids of all threads currently known to the arena
// (READY, RUNNING or BLOCKED, plus any TERMINATED-but-not-yet-joined
// thread). It is a debugging aid, not part of the scheduling hot path.
func LiveIDs() []uint32 {
	arenaLock.lock()
	defer arenaLock.unlock()
	return set.Uint32.ToSlice(arenaIDs)
}

// mustDescriptor looks up id and aborts the process if it is missing; it
// is used internally at points where id is known-live by construction
// (e.g. an id just popped off a list that only ever holds live ids).
// A missing descriptor here indicates corruption of an internal
// invariant, i.e. the FATAL class of spec.md §7.
func mustDescriptor(id ID) *descriptor {
	d := arenaLookup(id)
	if d == nil {
		mlog.Fatalf("mthread: internal error: descriptor %d missing from arena", id)
	}
	return d
}
