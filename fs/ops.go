/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Fri Oct  9 13:22:09 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     164 min
 *
 */

package fs

import (
	"strings"
	"syscall"
	"time"

	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/pkg/errors"
)

type Attr struct {
	Ino                 uint64
	Mode                uint32
	Size                uint64
	Nlink               uint64
	Blocks              uint64 // in 512 byte sectors
	Atime, Mtime, Ctime time.Time
}

type DirEntry struct {
	Name string
	Ino  uint64
	Mode uint32
}

type StatFs struct {
	Bsize             uint32
	Blocks, Bfree     uint64
	Files, Ffree      uint64
	NameLen           uint32
	BackendBytesUsed  uint64
	BackendBytesAvail uint64
}

// Access checks that path exists.
func (self *Fs) Access(path string) error {
	_, err := self.Lookup(path)
	return err
}

// Lookup returns inode number of path.
func (self *Fs) Lookup(path string) (n uint64, err error) {
	defer self.lock.Locked()()
	n, err = self.resolve(path)
	mlog.Printf2("fs/ops", "fs.Lookup(%s) -> %d %v", path, n, err)
	return
}

func (self *Fs) getAttr(n uint64) (attr Attr, err error) {
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	pages, err := self.pageCount(ino)
	if err != nil {
		return
	}
	attr = Attr{
		Ino:    n,
		Mode:   ino.Mode,
		Size:   ino.Size,
		Nlink:  ino.RefCount,
		Blocks: pages * (storage.PageSize / sectorSize),
		Atime:  time.Unix(0, ino.Atime),
		Mtime:  time.Unix(0, ino.Mtime),
		Ctime:  time.Unix(0, ino.Ctime),
	}
	return
}

func (self *Fs) GetAttr(path string) (attr Attr, err error) {
	defer self.lock.Locked()()
	n, err := self.resolve(path)
	if err == nil {
		attr, err = self.getAttr(n)
	}
	mlog.Printf2("fs/ops", "fs.GetAttr(%s) -> %+v %v", path, attr, err)
	return
}

// ReadDir lists the entries of directory path in slot order.
func (self *Fs) ReadDir(path string) (ret []DirEntry, err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.ReadDir(%s) -> %d entries %v", path, len(ret), err)
	}()
	n, err := self.resolve(path)
	if err != nil {
		return
	}
	entries, err := self.dirEntries(n)
	if err != nil {
		return
	}
	ret = make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		ino, err := self.getInode(e.ino)
		if err != nil {
			return nil, err
		}
		ret = append(ret, DirEntry{Name: e.name, Ino: e.ino, Mode: ino.Mode})
	}
	dir, err := self.getInode(n)
	if err != nil {
		return
	}
	dir.setTimes(self.now(), true, false, false)
	err = self.putInode(n, dir)
	return
}

// create makes a new object of the given mode at path.
func (self *Fs) create(path string, mode uint32) (n uint64, err error) {
	parent, name := splitPath(path)
	if name == "" {
		return 0, errors.Wrapf(ErrExists, "%s", path)
	}
	if err = validateName(name); err != nil {
		return
	}
	pn, err := self.resolve(parent)
	if err != nil {
		return
	}
	if _, err = self.dirLookup(pn, name); err == nil {
		return 0, errors.Wrapf(ErrExists, "%s", path)
	}
	if errors.Cause(err) != ErrNotFound {
		return
	}
	n, ino, err := self.allocInode(mode)
	if err != nil {
		return
	}
	if err = self.dirInsert(pn, name, n); err != nil {
		// do not leak the inode
		if ferr := self.freeInode(n, ino); ferr != nil {
			mlog.Printf2("fs/ops", " freeInode failed: %v", ferr)
		}
		return 0, err
	}
	return n, nil
}

// Mknod creates a filesystem object; without type bits it is a
// regular file.
func (self *Fs) Mknod(path string, mode uint32) (err error) {
	defer self.lock.Locked()()
	if mode&syscall.S_IFMT == 0 {
		mode |= fuse.S_IFREG
	}
	n, err := self.create(path, mode)
	mlog.Printf2("fs/ops", "fs.Mknod(%s, %o) -> %d %v", path, mode, n, err)
	return
}

// Create creates a regular file.
func (self *Fs) Create(path string, mode uint32) (err error) {
	return self.Mknod(path, fuse.S_IFREG|(mode&07777))
}

func (self *Fs) Mkdir(path string, mode uint32) (err error) {
	defer self.lock.Locked()()
	n, err := self.create(path, fuse.S_IFDIR|(mode&07777))
	mlog.Printf2("fs/ops", "fs.Mkdir(%s, %o) -> %d %v", path, mode, n, err)
	return
}

// link adds an entry name in directory pn for inode n.
func (self *Fs) link(n, pn uint64, name string) error {
	if err := self.dirInsert(pn, name, n); err != nil {
		return err
	}
	ino, err := self.getInode(n)
	if err != nil {
		return err
	}
	ino.RefCount++
	ino.setTimes(self.now(), false, false, true)
	return self.putInode(n, ino)
}

// Link creates hard link to from at to. Directories cannot be linked.
func (self *Fs) Link(from, to string) (err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Link(%s, %s) -> %v", from, to, err)
	}()
	n, err := self.resolve(from)
	if err != nil {
		return
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	if ino.IsDir() {
		return errors.Wrapf(ErrInvalid, "hard link to directory %s", from)
	}
	parent, name := splitPath(to)
	pn, err := self.resolve(parent)
	if err != nil {
		return
	}
	return self.link(n, pn, name)
}

// unlink removes the entry at path; the inode is freed when its
// last entry goes.
func (self *Fs) unlink(path string) error {
	parent, name := splitPath(path)
	if name == "" {
		return errors.Wrap(ErrInvalid, "cannot remove root")
	}
	pn, err := self.resolve(parent)
	if err != nil {
		return err
	}
	n, err := self.dirLookup(pn, name)
	if err != nil {
		return err
	}
	if err = self.dirRemove(pn, name); err != nil {
		return err
	}
	ino, err := self.getInode(n)
	if err != nil {
		return err
	}
	if ino.RefCount > 0 {
		ino.RefCount--
	}
	if ino.RefCount == 0 {
		return self.freeInode(n, ino)
	}
	ino.setTimes(self.now(), false, false, true)
	return self.putInode(n, ino)
}

func (self *Fs) Unlink(path string) (err error) {
	defer self.lock.Locked()()
	err = self.unlink(path)
	mlog.Printf2("fs/ops", "fs.Unlink(%s) -> %v", path, err)
	return
}

// Rmdir is Unlink; directories are not checked for emptiness.
func (self *Fs) Rmdir(path string) (err error) {
	defer self.lock.Locked()()
	err = self.unlink(path)
	mlog.Printf2("fs/ops", "fs.Rmdir(%s) -> %v", path, err)
	return
}

// Rename moves from to to, replacing an existing to. The new entry is
// created before the old one is removed; if that fails, from is left
// as it was.
func (self *Fs) Rename(from, to string) (err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Rename(%s, %s) -> %v", from, to, err)
	}()
	from, to = cleanPath(from), cleanPath(to)
	n, err := self.resolve(from)
	if err != nil {
		return
	}
	if n == RootInode {
		return errors.Wrap(ErrInvalid, "cannot rename root")
	}
	if from == to {
		return nil
	}
	if to == "/" || strings.HasPrefix(from, to+"/") {
		return errors.Wrapf(ErrInvalid, "cannot move %s onto its ancestor %s", from, to)
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	if ino.IsDir() && strings.HasPrefix(to, from+"/") {
		return errors.Wrapf(ErrInvalid, "cannot move %s below itself", from)
	}
	parent, name := splitPath(to)
	if err = validateName(name); err != nil {
		return
	}
	pn, err := self.resolve(parent)
	if err != nil {
		return
	}
	existing, err := self.dirLookup(pn, name)
	switch errors.Cause(err) {
	case nil:
		if existing == n {
			return nil
		}
		eino, err := self.getInode(existing)
		if err != nil {
			return err
		}
		if eino.IsDir() != ino.IsDir() {
			return errors.Wrapf(ErrInvalid, "cannot replace %s", to)
		}
		if eino.IsDir() {
			entries, err := self.dirEntries(existing)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				return errors.Wrapf(ErrNotEmpty, "cannot replace %s", to)
			}
		}
		if err = self.unlink(to); err != nil {
			return err
		}
	case ErrNotFound:
	default:
		return
	}
	if err = self.link(n, pn, name); err != nil {
		return
	}
	return self.unlink(from)
}

// Chmod replaces the permission bits; the type is kept.
func (self *Fs) Chmod(path string, mode uint32) (err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Chmod(%s, %o) -> %v", path, mode, err)
	}()
	n, err := self.resolve(path)
	if err != nil {
		return
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	ino.Mode = ino.Mode&syscall.S_IFMT | mode&07777
	ino.setTimes(self.now(), false, false, true)
	return self.putInode(n, ino)
}

// Utimens sets access and modification times; nil leaves the time as
// it is. Status change time is always updated.
func (self *Fs) Utimens(path string, atime, mtime *time.Time) (err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Utimens(%s, %v, %v) -> %v", path, atime, mtime, err)
	}()
	n, err := self.resolve(path)
	if err != nil {
		return
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	if atime != nil {
		ino.Atime = atime.UnixNano()
	}
	if mtime != nil {
		ino.Mtime = mtime.UnixNano()
	}
	ino.setTimes(self.now(), false, false, true)
	return self.putInode(n, ino)
}

// Truncate is accepted, but does nothing.
func (self *Fs) Truncate(path string, size uint64) (err error) {
	defer self.lock.Locked()()
	_, err = self.resolve(path)
	mlog.Printf2("fs/ops", "fs.Truncate(%s, %d) -> %v", path, size, err)
	return
}

// Open checks that path exists; there is no per-handle state.
func (self *Fs) Open(path string) (err error) {
	defer self.lock.Locked()()
	_, err = self.resolve(path)
	mlog.Printf2("fs/ops", "fs.Open(%s) -> %v", path, err)
	return
}

func (self *Fs) dataInode(path string) (uint64, *Inode, error) {
	n, err := self.resolve(path)
	if err != nil {
		return 0, nil, err
	}
	ino, err := self.getInode(n)
	if err != nil {
		return 0, nil, err
	}
	if ino.IsDir() {
		return 0, nil, errors.Wrapf(ErrInvalid, "%s is a directory", path)
	}
	return n, ino, nil
}

func (self *Fs) Read(path string, offset, size uint64) (data []byte, err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Read(%s, %d, %d) -> %d %v", path, offset, size, len(data), err)
	}()
	n, ino, err := self.dataInode(path)
	if err != nil {
		return
	}
	return self.readData(n, ino, offset, size)
}

func (self *Fs) Write(path string, offset uint64, data []byte) (written int, err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Write(%s, %d, %d) -> %d %v", path, offset, len(data), written, err)
	}()
	n, ino, err := self.dataInode(path)
	if err != nil {
		return
	}
	return self.writeData(n, ino, offset, data)
}

// Symlink creates link whose content is target.
func (self *Fs) Symlink(target, link string) (err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Symlink(%s, %s) -> %v", target, link, err)
	}()
	n, err := self.create(link, fuse.S_IFLNK|0777)
	if err != nil {
		return
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	if _, err = self.writeData(n, ino, 0, []byte(target)); err != nil {
		if uerr := self.unlink(link); uerr != nil {
			mlog.Printf2("fs/ops", " unlink after failed write: %v", uerr)
		}
	}
	return
}

func (self *Fs) Readlink(path string) (target string, err error) {
	defer self.lock.Locked()()
	defer func() {
		mlog.Printf2("fs/ops", "fs.Readlink(%s) -> %s %v", path, target, err)
	}()
	n, err := self.resolve(path)
	if err != nil {
		return
	}
	ino, err := self.getInode(n)
	if err != nil {
		return
	}
	if !ino.IsSymlink() {
		return "", errors.Wrapf(ErrInvalid, "%s is not a symlink", path)
	}
	data, err := self.readData(n, ino, 0, ino.Size)
	return string(data), err
}

func (self *Fs) StatFs() StatFs {
	defer self.lock.Locked()()
	st := self.store.Stats()
	return StatFs{
		Bsize:             storage.PageSize,
		Blocks:            st.TotalPages,
		Bfree:             st.FreePages,
		Files:             st.TotalInodes,
		Ffree:             st.FreeInodes,
		NameLen:           DirectoryNameLength,
		BackendBytesUsed:  st.BytesUsed,
		BackendBytesAvail: st.BytesAvailable,
	}
}
