// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mthread implements a user-level M:N cooperative threading
// runtime: application-visible threads multiplexed onto one or more
// kernel-backed virtual processors, with its own scheduler and its own
// mutex, semaphore and condition-variable primitives built on
// spin-locked critical sections.
//
// mthread threads are cooperative: a thread keeps the CPU until it
// calls Yield, blocks on a primitive, or terminates. There is no
// preemption, no priority inheritance and no cross-process
// synchronization.
package mthread
