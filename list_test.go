// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

import "testing"

func newTestDescriptor() ID {
	d := &descriptor{id: newID(), wake: make(chan struct{}, 1), doneCh: make(chan struct{})}
	arenaPut(d)
	return d.id
}

func TestListFIFO(t *testing.T) {
	var l list
	if !l.isEmpty() {
		t.Fatalf("zero list is not empty")
	}

	ids := make([]ID, 4)
	for i := range ids {
		ids[i] = newTestDescriptor()
		l.insertLast(ids[i])
	}
	if l.isEmpty() {
		t.Fatalf("list is empty after 4 inserts")
	}

	for i, want := range ids {
		if got := l.removeFirst(); got != want {
			t.Errorf("removeFirst #%d = %v, want %v", i, got, want)
		}
	}
	if !l.isEmpty() {
		t.Errorf("list not empty after draining all inserted ids")
	}
	if got := l.removeFirst(); got != 0 {
		t.Errorf("removeFirst on empty list = %v, want 0", got)
	}
}

func TestListRemoveLast(t *testing.T) {
	var l list
	a, b, c := newTestDescriptor(), newTestDescriptor(), newTestDescriptor()
	l.insertLast(a)
	l.insertLast(b)
	l.insertLast(c)

	if got := l.removeLast(); got != c {
		t.Fatalf("removeLast = %v, want %v", got, c)
	}
	// The remaining list must still be a valid FIFO of [a, b].
	if got := l.removeFirst(); got != a {
		t.Errorf("removeFirst after removeLast = %v, want %v", got, a)
	}
	if got := l.removeFirst(); got != b {
		t.Errorf("removeFirst after removeLast = %v, want %v", got, b)
	}
	if got := l.removeLast(); got != 0 {
		t.Errorf("removeLast on empty list = %v, want 0", got)
	}
}

func TestListRemoveAll(t *testing.T) {
	var l list
	ids := []ID{newTestDescriptor(), newTestDescriptor(), newTestDescriptor()}
	for _, id := range ids {
		l.insertLast(id)
	}
	got := l.removeAll()
	if len(got) != len(ids) {
		t.Fatalf("removeAll returned %d ids, want %d", len(got), len(ids))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Errorf("removeAll()[%d] = %v, want %v", i, got[i], id)
		}
	}
	if !l.isEmpty() {
		t.Errorf("list not empty after removeAll")
	}
}
