// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

// MutexType selects a mutex's (unenforced, bookkeeping-only) locking
// discipline, mirroring pthread_mutexattr_settype.
type MutexType int

const (
	// MutexNormal deadlocks on relock by the owner; mthread does not
	// actually detect this, it simply never special-cases it.
	MutexNormal MutexType = iota
	MutexRecursive
	MutexErrorCheck
	MutexDefault = MutexNormal
)

// SchedPolicy selects the (informational) policy recorded on a
// MutexAttr, mirroring the original library's mutexattr.policy field.
// mthread's scheduler is always FIFO regardless of this setting; it
// exists so attribute values round-trip for callers that set and later
// read them back.
type SchedPolicy int

const (
	FirstFit SchedPolicy = iota
	FairShare
)

// Protocol selects the (informational) priority-inheritance protocol
// recorded on a MutexAttr. mthread has no thread priorities, so this,
// like Prioceiling, is bookkeeping only: spec.md §6 lists
// priority-inheritance handling as a non-goal.
type Protocol int

const (
	ProtoNone Protocol = iota
	ProtoInherit
	ProtoProtect
)

// MutexAttr holds the (inert) attributes a Mutex may be created with.
// None of Type, Policy, Protocol or Prioceiling change Mutex's observed
// behavior; mthread accepts and stores them purely so code ported from
// the pthreads-style API has somewhere to put them.
type MutexAttr struct {
	Type        MutexType
	Policy      SchedPolicy
	Protocol    Protocol
	Prioceiling int
}

// SemAttr holds the (inert) attributes a Semaphore may be created with.
type SemAttr struct {
	Policy SchedPolicy
}

// CondAttr holds the (inert) attributes a CV may be created with.
type CondAttr struct {
	Policy SchedPolicy
}
