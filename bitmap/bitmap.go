/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 11:20:03 2026 mstenber
 * Last modified: Tue Oct  6 08:44:10 2026 mstenber
 * Edit time:     22 min
 *
 */

// bitmap provides a bit-packed flag array on top of a caller owned
// byte slice. The slice is typically a region of the superblock page,
// so changes are visible to whoever persists that page.
package bitmap

import (
	"log"
	"math/bits"
)

type Bitmap struct {
	buf []byte
	n   int
}

// Bytes returns the number of bytes needed to store n flags.
func Bytes(n int) int {
	return (n + 7) / 8
}

// New views buf as n flags. buf must be at least Bytes(n) long.
func New(buf []byte, n int) *Bitmap {
	if len(buf) < Bytes(n) {
		log.Panicf("bitmap.New: %d bytes too short for %d flags", len(buf), n)
	}
	return &Bitmap{buf: buf[:Bytes(n)], n: n}
}

func (self *Bitmap) Len() int {
	return self.n
}

func (self *Bitmap) check(i int) {
	if i < 0 || i >= self.n {
		log.Panicf("bitmap index %d out of range [0,%d)", i, self.n)
	}
}

func (self *Bitmap) Get(i int) bool {
	self.check(i)
	return self.buf[i/8]&(1<<uint(i%8)) != 0
}

func (self *Bitmap) Put(i int, v bool) {
	self.check(i)
	if v {
		self.buf[i/8] |= 1 << uint(i%8)
	} else {
		self.buf[i/8] &^= 1 << uint(i%8)
	}
}

// Count returns the number of set flags.
func (self *Bitmap) Count() (n int) {
	full := self.n / 8
	for _, b := range self.buf[:full] {
		n += bits.OnesCount8(b)
	}
	for i := full * 8; i < self.n; i++ {
		if self.Get(i) {
			n++
		}
	}
	return
}

// FirstClear returns the first index >= from whose flag is not set.
func (self *Bitmap) FirstClear(from int) (int, bool) {
	for i := from; i < self.n; i++ {
		if i%8 == 0 && i+8 <= self.n && self.buf[i/8] == 0xff {
			i += 7
			continue
		}
		if !self.Get(i) {
			return i, true
		}
	}
	return 0, false
}
