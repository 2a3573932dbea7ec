/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 10:21:05 2026 mstenber
 * Last modified: Fri Oct 16 13:44:31 2026 mstenber
 * Edit time:     37 min
 *
 */

package fs

import (
	"fmt"
	"syscall"
	"time"

	"github.com/fingon/go-nufs/storage"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/tchajed/marshal"
)

// Inode is the decoded form of an inode table record. Page index 0
// (the superblock) is never a data page, so 0 in Direct, Indirect or
// an indirect page entry means unused.
type Inode struct {
	Mode                uint32
	Direct              [DirectPointers]uint64
	Indirect            uint64
	Size                uint64
	Atime, Mtime, Ctime int64 // unix nanoseconds
	RefCount            uint64
}

func (self *Inode) String() string {
	return fmt.Sprintf("inode{mode:%o size:%d rc:%d direct:%v indirect:%d}",
		self.Mode, self.Size, self.RefCount, self.Direct, self.Indirect)
}

func (self *Inode) IsDir() bool {
	return self.Mode&syscall.S_IFMT == fuse.S_IFDIR
}

func (self *Inode) IsSymlink() bool {
	return self.Mode&syscall.S_IFMT == fuse.S_IFLNK
}

func (self *Inode) encode(buf []byte) {
	enc := marshal.NewEnc(storage.InodeRecordSize)
	enc.PutInt(uint64(self.Mode))
	enc.PutInts(self.Direct[:])
	enc.PutInt(self.Indirect)
	enc.PutInt(self.Size)
	enc.PutInt(uint64(self.Atime))
	enc.PutInt(uint64(self.Mtime))
	enc.PutInt(uint64(self.Ctime))
	enc.PutInt(self.RefCount)
	copy(buf[:storage.InodeRecordSize], enc.Finish())
}

func (self *Inode) decode(buf []byte) {
	dec := marshal.NewDec(buf[:storage.InodeRecordSize])
	self.Mode = uint32(dec.GetInt())
	copy(self.Direct[:], dec.GetInts(DirectPointers))
	self.Indirect = dec.GetInt()
	self.Size = dec.GetInt()
	self.Atime = int64(dec.GetInt())
	self.Mtime = int64(dec.GetInt())
	self.Ctime = int64(dec.GetInt())
	self.RefCount = dec.GetInt()
}

func (self *Inode) setTimes(now time.Time, atime, mtime, ctime bool) {
	ns := now.UnixNano()
	if atime {
		self.Atime = ns
	}
	if mtime {
		self.Mtime = ns
	}
	if ctime {
		self.Ctime = ns
	}
}
