/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct 15 09:30:12 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     58 min
 *
 */

// fusefs exposes fs.Fs to the kernel using go-fuse path API.
//
// Pathfs gives names relative to the mount point ("" is the root);
// they are turned into absolute paths before calling into fs.Fs.
package fusefs

import (
	"os"
	"syscall"
	"time"

	"github.com/fingon/go-nufs/fs"
	"github.com/fingon/go-nufs/mlog"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/hanwen/go-fuse/fuse/nodefs"
	"github.com/hanwen/go-fuse/fuse/pathfs"
	"github.com/pkg/errors"
)

type fuseFs struct {
	pathfs.FileSystem
	fs  *fs.Fs
	uid uint32
	gid uint32
}

var _ pathfs.FileSystem = &fuseFs{}

func New(f *fs.Fs) pathfs.FileSystem {
	return &fuseFs{FileSystem: pathfs.NewDefaultFileSystem(),
		fs:  f,
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid())}
}

// errorStatus maps errors of fs.Fs to fuse status codes.
func errorStatus(err error) fuse.Status {
	if err == nil {
		return fuse.OK
	}
	switch errors.Cause(err) {
	case fs.ErrNotFound:
		return fuse.ENOENT
	case fs.ErrFull, fs.ErrResourceExhausted:
		return fuse.Status(syscall.ENOSPC)
	case fs.ErrExists:
		return fuse.Status(syscall.EEXIST)
	case fs.ErrNotDirectory:
		return fuse.Status(syscall.ENOTDIR)
	case fs.ErrNameTooLong:
		return fuse.Status(syscall.ENAMETOOLONG)
	case fs.ErrFileTooLarge:
		return fuse.Status(syscall.EFBIG)
	case fs.ErrNotEmpty:
		return fuse.Status(syscall.ENOTEMPTY)
	case fs.ErrInvalid:
		return fuse.EINVAL
	}
	mlog.Printf2("fusefs/fusefs", "unexpected error: %v", err)
	return fuse.EIO
}

func abs(name string) string {
	return "/" + name
}

func unixToFuse(t time.Time, sec *uint64, nsec *uint32) {
	ns := t.UnixNano()
	*sec = uint64(ns / 1e9)
	*nsec = uint32(ns % 1e9)
}

func (self *fuseFs) fillAttr(attr fs.Attr, out *fuse.Attr) {
	out.Ino = attr.Ino + 1 // FUSE_ROOT_ID is 1
	out.Mode = attr.Mode
	out.Size = attr.Size
	out.Blocks = attr.Blocks
	out.Nlink = uint32(attr.Nlink)
	out.Blksize = uint32(os.Getpagesize())
	unixToFuse(attr.Atime, &out.Atime, &out.Atimensec)
	unixToFuse(attr.Mtime, &out.Mtime, &out.Mtimensec)
	unixToFuse(attr.Ctime, &out.Ctime, &out.Ctimensec)
	out.Uid = self.uid
	out.Gid = self.gid
}

func (self *fuseFs) String() string {
	return "nufs"
}

func (self *fuseFs) GetAttr(name string, context *fuse.Context) (*fuse.Attr, fuse.Status) {
	attr, err := self.fs.GetAttr(abs(name))
	if err != nil {
		return nil, errorStatus(err)
	}
	out := &fuse.Attr{}
	self.fillAttr(attr, out)
	return out, fuse.OK
}

func (self *fuseFs) Access(name string, mode uint32, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Access(abs(name)))
}

func (self *fuseFs) Chmod(name string, mode uint32, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Chmod(abs(name), mode))
}

// Chown is accepted, but ownership is not stored.
func (self *fuseFs) Chown(name string, uid uint32, gid uint32, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Access(abs(name)))
}

func (self *fuseFs) Utimens(name string, atime *time.Time, mtime *time.Time, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Utimens(abs(name), atime, mtime))
}

func (self *fuseFs) Truncate(name string, size uint64, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Truncate(abs(name), size))
}

func (self *fuseFs) Link(oldName string, newName string, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Link(abs(oldName), abs(newName)))
}

func (self *fuseFs) Mkdir(name string, mode uint32, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Mkdir(abs(name), mode))
}

func (self *fuseFs) Mknod(name string, mode uint32, dev uint32, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Mknod(abs(name), mode))
}

func (self *fuseFs) Rename(oldName string, newName string, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Rename(abs(oldName), abs(newName)))
}

func (self *fuseFs) Rmdir(name string, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Rmdir(abs(name)))
}

func (self *fuseFs) Unlink(name string, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Unlink(abs(name)))
}

func (self *fuseFs) Open(name string, flags uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	if err := self.fs.Open(abs(name)); err != nil {
		return nil, errorStatus(err)
	}
	return newFile(self, abs(name)), fuse.OK
}

func (self *fuseFs) Create(name string, flags uint32, mode uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	err := self.fs.Create(abs(name), mode)
	if err != nil && !(errors.Cause(err) == fs.ErrExists && flags&syscall.O_EXCL == 0) {
		return nil, errorStatus(err)
	}
	return newFile(self, abs(name)), fuse.OK
}

func (self *fuseFs) OpenDir(name string, context *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	entries, err := self.fs.ReadDir(abs(name))
	if err != nil {
		return nil, errorStatus(err)
	}
	ret := make([]fuse.DirEntry, len(entries))
	for i, e := range entries {
		ret[i] = fuse.DirEntry{Name: e.Name, Mode: e.Mode, Ino: e.Ino + 1}
	}
	return ret, fuse.OK
}

func (self *fuseFs) Symlink(value string, linkName string, context *fuse.Context) fuse.Status {
	return errorStatus(self.fs.Symlink(value, abs(linkName)))
}

func (self *fuseFs) Readlink(name string, context *fuse.Context) (string, fuse.Status) {
	target, err := self.fs.Readlink(abs(name))
	return target, errorStatus(err)
}

func (self *fuseFs) StatFs(name string) *fuse.StatfsOut {
	st := self.fs.StatFs()
	return &fuse.StatfsOut{
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bfree,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Bsize:   st.Bsize,
		Frsize:  st.Bsize,
		NameLen: st.NameLen,
	}
}

// OnUnmount flushes pending writes; closing is left to the owner of
// the fs.Fs.
func (self *fuseFs) OnUnmount() {
	if err := self.fs.Flush(); err != nil {
		mlog.Printf2("fusefs/fusefs", "flush on unmount failed: %v", err)
	}
}
