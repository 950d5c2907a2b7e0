// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/4nuit/mthread/mlog"
)

// Runtime is a pool of virtual processors that Create schedules new
// threads onto, round robin. Most programs use the package-level
// Create/Self/Yield/Join, which operate on a lazily-initialized default
// Runtime; NewRuntime exists for tests and workloads that want isolated
// VP pools (e.g. to compare behavior at different VP counts).
type Runtime struct {
	vps    []*virtualProcessor
	nextVP uint32
}

// NewRuntime starts n virtual processors, each with its own idle-loop
// goroutine pinned to an OS thread. Values of n below 1 are treated as 1.
func NewRuntime(n int) *Runtime {
	if n < 1 {
		n = 1
	}
	rt := &Runtime{vps: make([]*virtualProcessor, n)}
	for i := range rt.vps {
		vp := newVirtualProcessor(i)
		rt.vps[i] = vp
		go vp.idleLoop()
	}
	return rt
}

func (rt *Runtime) pickVP() *virtualProcessor {
	i := (atomic.AddUint32(&rt.nextVP, 1) - 1) % uint32(len(rt.vps))
	return rt.vps[i]
}

// defaultVPCount chooses the default runtime's VP count: the MTHREAD_VPS
// environment variable if set and valid, else GOMAXPROCS, mirroring how
// the original C library sized its VP pool off the host's core count.
func defaultVPCount() int {
	if v := os.Getenv("MTHREAD_VPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.GOMAXPROCS(0)
}

var (
	defaultRuntimeOnce sync.Once
	defaultRuntime     *Runtime
)

// Default returns the process-wide default Runtime, starting it on
// first use.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime(defaultVPCount())
	})
	return defaultRuntime
}

// --------------------------------------------------------------------
// Self-identification.
//
// Go has no thread-local storage, but within a single VP's baton-passing
// protocol exactly one descriptor goroutine is ever unparked at a time,
// so mapping "the calling goroutine" to "the descriptor whose turn it
// currently is" is race-free as long as the mapping is installed before
// the goroutine's start function runs and removed only after it can no
// longer be observed as running. We key that mapping on the Go
// runtime's own goroutine id, extracted the same way third-party
// goroutine-local-storage shims do: by parsing the header line of
// runtime.Stack's output, which always begins "goroutine N [status]:".

var (
	selfRegistryLock sync.RWMutex
	selfRegistry     = make(map[uint64]ID)
)

func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		fatal("mthread: could not parse goroutine id from stack header %q", b)
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		fatal("mthread: could not parse goroutine id: %v", err)
	}
	return id
}

func registerSelf(id ID) {
	gid := currentGoroutineID()
	selfRegistryLock.Lock()
	selfRegistry[gid] = id
	selfRegistryLock.Unlock()
}

func unregisterSelf() {
	gid := currentGoroutineID()
	selfRegistryLock.Lock()
	delete(selfRegistry, gid)
	selfRegistryLock.Unlock()
}

// Self returns the id of the calling thread. It must be called from
// within a thread's start function (directly or transitively); calling
// it from outside any thread (e.g. from the goroutine that called
// Create) is a programming error and aborts the process.
func Self() ID {
	id, ok := currentSelfOptional()
	if !ok {
		fatal("mthread: Self() called outside of a thread body")
	}
	return id
}

// currentSelfOptional is Self without the fatal: it reports whether the
// calling goroutine is a registered mthread thread at all, which Join
// needs in order to support being called from a goroutine that never
// went through Create (e.g. a program's main goroutine).
func currentSelfOptional() (ID, bool) {
	gid := currentGoroutineID()
	selfRegistryLock.RLock()
	id, ok := selfRegistry[gid]
	selfRegistryLock.RUnlock()
	return id, ok
}

// wakerVP returns the virtual processor belonging to the calling thread,
// or nil if the caller is not itself a registered mthread thread (e.g.
// the program's main goroutine posting a semaphore created for worker
// threads). Mutex.Unlock, Semaphore.Post and CV.Signal/Broadcast use
// this to enqueue a woken waiter onto the waker's own VP, per spec.md
// §4.4; when there is no waker VP to target, they fall back to the
// waiter's own last-known VP.
func wakerVP() *virtualProcessor {
	id, ok := currentSelfOptional()
	if !ok {
		return nil
	}
	return mustDescriptor(id).vp
}

// --------------------------------------------------------------------
// Creation, yielding, joining.

// Create starts a new thread running fn(arg) on rt and returns its id.
// attr may be nil, equivalent to &ThreadAttr{}.
func (rt *Runtime) Create(attr *ThreadAttr, fn func(arg interface{}) interface{}, arg interface{}) (ID, error) {
	if fn == nil {
		return 0, ErrInvalid
	}
	if attr == nil {
		attr = &ThreadAttr{}
	}
	vp := rt.pickVP()
	d := &descriptor{
		id:     newID(),
		vp:     vp,
		fn:     fn,
		arg:    arg,
		wake:   make(chan struct{}, 1),
		doneCh: make(chan struct{}),
	}
	d.setStatus(Ready)
	arenaPut(d)
	mlog.Eventf("create", "thread=%d vp=%d", d.id, vp.index)

	go runDescriptor(d)

	vp.insertReady(d.id)
	return d.id, nil
}

// Create starts a new thread on the default Runtime.
func Create(attr *ThreadAttr, fn func(arg interface{}) interface{}, arg interface{}) (ID, error) {
	return Default().Create(attr, fn, arg)
}

// runDescriptor is the trampoline every thread's dedicated goroutine
// runs: park until scheduled, register self, run the start function,
// then hand off termination to the scheduler.
func runDescriptor(d *descriptor) {
	<-d.wake
	d.vp.afterResume()
	registerSelf(d.id)

	ret := d.fn(d.arg)

	d.ret = ret
	unregisterSelf()
	terminateSelf(d)
}

// Yield voluntarily gives up the calling thread's virtual processor,
// per spec.md §4.4. If no other thread is ready to run, Yield returns
// immediately.
func Yield() {
	id := Self()
	d := mustDescriptor(id)
	mlog.Eventf("yield", "thread=%d", id)
	d.vp.yieldCore(true, id, d.wake)
}

// terminateSelf marks d TERMINATED, wakes a waiting joiner if any, and
// switches away from d's VP for good: d's goroutine stays parked inside
// this call, is never resumed, and never returns from runDescriptor.
func terminateSelf(d *descriptor) {
	d.setStatus(Terminated)
	mlog.Eventf("terminate", "thread=%d", d.id)

	arenaLock.lock()
	joiner := d.joiner
	arenaLock.unlock()

	close(d.doneCh)
	if joiner != 0 {
		d.vp.insertReady(joiner)
	}

	d.vp.yieldCore(false, d.id, d.wake)
}

// Join blocks the calling thread until id terminates, then returns its
// return value and frees its descriptor. Join may be called at most
// once per id; calling it on an unknown, already-joined, or in-flight
// second-joiner id returns ErrInvalid (the original library supports
// only a single joiner per thread, per spec.md §4.3).
func Join(id ID) (interface{}, error) {
	d := arenaLookup(id)
	if d == nil {
		return nil, ErrInvalid
	}

	arenaLock.lock()
	if d.joined {
		arenaLock.unlock()
		return nil, ErrInvalid
	}
	d.joined = true
	if d.getStatus() == Terminated {
		ret := d.ret
		arenaLock.unlock()
		arenaRemove(id)
		return ret, nil
	}
	self, isThread := currentSelfOptional()
	if isThread {
		d.joiner = self
	}
	arenaLock.unlock()

	if isThread {
		selfD := mustDescriptor(self)
		selfD.setStatus(Blocked)
		selfD.vp.yieldCore(false, self, selfD.wake)
	} else {
		// The caller is not itself an mthread thread (e.g. the
		// program's original goroutine), so it owns no VP to yield
		// from; park directly on the target's termination signal.
		<-d.doneCh
	}

	ret := d.ret
	arenaRemove(id)
	return ret, nil
}
