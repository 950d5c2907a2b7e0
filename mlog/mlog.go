// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mlog is the logging façade used throughout mthread. It wraps
// github.com/4nuit/mthread/vlog (itself a wrapper around github.com/cosmosnicolaou/llog)
// the same way the original C library's internal mthread_log(tag, msg)
// calls traced every mutex, semaphore, condition-variable and scheduler
// operation: one short, leveled line per operation, gated by verbosity so
// that production builds pay nothing for it.
package mlog

import "github.com/4nuit/mthread/vlog"

// Level gates the chattiest, per-operation trace lines (mutex/sem/cond
// lock/unlock, yield, context switch). Set V via vlog's -v flag or
// vlog.Log.Configure(vlog.Level(n)).
const Level = 2

// Event logs a single traced operation, mirroring the original library's
// mthread_log(tag, msg) call sites.
func Event(tag, msg string) {
	if vlog.Log.V(Level) {
		vlog.Log.Infof("%s: %s", tag, msg)
	}
}

// Eventf is Event with a format string.
func Eventf(tag, format string, args ...interface{}) {
	if vlog.Log.V(Level) {
		vlog.Log.Infof("%s: "+format, append([]interface{}{tag}, args...)...)
	}
}

// Fatalf logs a diagnostic and aborts the process, mirroring the C
// library's perror()+exit(errno) on corruption of an essential invariant
// or failure to allocate essential internal bookkeeping.
func Fatalf(format string, args ...interface{}) {
	vlog.Log.Fatalf(format, args...)
}
