/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct 15 10:41:55 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     17 min
 *
 */

package fusefs

import (
	"time"

	"github.com/fingon/go-nufs/mlog"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/hanwen/go-fuse/fuse/nodefs"
)

// file is an open file. It carries only the path; every call goes to
// fs.Fs by name, so after a rename the handle follows the name.
type file struct {
	nodefs.File
	ffs  *fuseFs
	path string
}

func newFile(ffs *fuseFs, path string) nodefs.File {
	return &file{File: nodefs.NewDefaultFile(), ffs: ffs, path: path}
}

func (self *file) String() string {
	return "file{" + self.path + "}"
}

func (self *file) InnerFile() nodefs.File {
	return nil
}

func (self *file) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	data, err := self.ffs.fs.Read(self.path, uint64(off), uint64(len(dest)))
	if err != nil {
		return nil, errorStatus(err)
	}
	return fuse.ReadResultData(data), fuse.OK
}

func (self *file) Write(data []byte, off int64) (uint32, fuse.Status) {
	n, err := self.ffs.fs.Write(self.path, uint64(off), data)
	mlog.Printf2("fusefs/file", "%v Write %d @%d -> %d %v", self, len(data), off, n, err)
	return uint32(n), errorStatus(err)
}

func (self *file) Flush() fuse.Status {
	return fuse.OK
}

func (self *file) Fsync(flags int) fuse.Status {
	return errorStatus(self.ffs.fs.Flush())
}

func (self *file) Truncate(size uint64) fuse.Status {
	return errorStatus(self.ffs.fs.Truncate(self.path, size))
}

func (self *file) GetAttr(out *fuse.Attr) fuse.Status {
	attr, err := self.ffs.fs.GetAttr(self.path)
	if err != nil {
		return errorStatus(err)
	}
	self.ffs.fillAttr(attr, out)
	return fuse.OK
}

func (self *file) Chmod(perms uint32) fuse.Status {
	return errorStatus(self.ffs.fs.Chmod(self.path, perms))
}

func (self *file) Utimens(atime *time.Time, mtime *time.Time) fuse.Status {
	return errorStatus(self.ffs.fs.Utimens(self.path, atime, mtime))
}
