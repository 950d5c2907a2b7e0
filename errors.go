// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"errors"

	"github.com/4nuit/mthread/mlog"
)

// ErrInvalid reports a nil/zero-value primitive, an invalid attribute, or
// an operation on an already-destroyed or unknown primitive.
var ErrInvalid = errors.New("mthread: invalid argument")

// ErrBusy reports that TryLock/TryWait would block, or that Destroy was
// called on a primitive that is still owned, held, or has waiters.
var ErrBusy = errors.New("mthread: resource busy")

// fatal reports corruption of an internal invariant, or a resource
// exhaustion that the reference library treated as unrecoverable (e.g.
// malloc failure for essential bookkeeping). The runtime aborts the
// process after logging a diagnostic, mirroring the C library's
// perror+exit(errno) on allocation failure.
func fatal(format string, args ...interface{}) {
	mlog.Fatalf(format, args...)
}
