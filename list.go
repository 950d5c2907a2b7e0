// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mthread

// A list is an intrusive, doubly-linked FIFO queue of thread ids. It
// supports insertion at the tail and removal from the head, as required
// by ready queues and by the waiter lists of Mutex, Semaphore and CV.
//
// A list is not safe for concurrent use; callers must hold the spinlock
// of the primitive that owns the list (or, for a VirtualProcessor's ready
// queue, must be the thread currently running on that VP).
//
// The zero list is a valid, empty list.
type list struct {
	head, tail ID
	len        int
}

// isEmpty reports whether the list has no elements.
func (l *list) isEmpty() bool {
	return l.len == 0
}

// insertLast appends id to the tail of the list. id must not already be
// linked into this or any other list.
func (l *list) insertLast(id ID) {
	d := mustDescriptor(id)
	d.listPrev, d.listNext = l.tail, 0
	if l.len == 0 {
		l.head = id
	} else {
		mustDescriptor(l.tail).listNext = id
	}
	l.tail = id
	l.len++
}

// removeFirst removes and returns the head of the list, or 0 if the list
// is empty.
func (l *list) removeFirst() ID {
	if l.len == 0 {
		return 0
	}
	id := l.head
	d := mustDescriptor(id)
	l.head = d.listNext
	if l.head == 0 {
		l.tail = 0
	} else {
		mustDescriptor(l.head).listPrev = 0
	}
	d.listNext, d.listPrev = 0, 0
	l.len--
	return id
}

// removeLast removes and returns the tail of the list, or 0 if the list
// is empty. It exists only to support CV.Wait's rollback-on-unlock-
// failure path, which must undo an insertLast of the very node it just
// added if releasing the caller's mutex then fails.
func (l *list) removeLast() ID {
	if l.len == 0 {
		return 0
	}
	id := l.tail
	d := mustDescriptor(id)
	l.tail = d.listPrev
	if l.tail == 0 {
		l.head = 0
	} else {
		mustDescriptor(l.tail).listNext = 0
	}
	d.listNext, d.listPrev = 0, 0
	l.len--
	return id
}

// removeAll empties the list and returns its former contents head-first.
func (l *list) removeAll() []ID {
	ids := make([]ID, 0, l.len)
	for id := l.removeFirst(); id != 0; id = l.removeFirst() {
		ids = append(ids, id)
	}
	return ids
}
