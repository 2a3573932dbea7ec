/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 09:41:12 2026 mstenber
 * Last modified: Tue Oct 13 16:20:51 2026 mstenber
 * Edit time:     12 min
 *
 */

package util

import (
	"sync"
	"sync/atomic"
)

// MutexLocked is sync.Mutex with convenience features; the usual use
// is just `defer x.Locked()()` at the top of a function that should
// run with the mutex held.
//
// It also remembers whether it is held, so that code which assumes
// the caller took the lock can check that cheaply.
type MutexLocked struct {
	mu   sync.Mutex
	held int32
}

func (self *MutexLocked) Lock() {
	self.mu.Lock()
	atomic.StoreInt32(&self.held, 1)
}

func (self *MutexLocked) Unlock() {
	atomic.StoreInt32(&self.held, 0)
	self.mu.Unlock()
}

func (self *MutexLocked) Locked() (unlock func()) {
	self.Lock()
	return self.Unlock
}

// IsLocked reports whether someone (not necessarily us) holds the
// mutex.
func (self *MutexLocked) IsLocked() bool {
	return atomic.LoadInt32(&self.held) != 0
}

// AssertLocked panics if the mutex is not held.
func (self *MutexLocked) AssertLocked() {
	if !self.IsLocked() {
		panic("MutexLocked: not locked")
	}
}
