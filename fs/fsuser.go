/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct 12 09:30:06 2026 mstenber
 * Last modified: Mon Oct 19 10:40:18 2026 mstenber
 * Edit time:     48 min
 *
 */

package fs

import (
	"os"
	"path"
	"syscall"
	"time"

	"github.com/fingon/go-nufs/mlog"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/pkg/errors"
)

// FSUser provides ~os module functionality on top of Fs, without
// mounting anything. Used by tests and the offline image tool.
type FSUser struct {
	fs *Fs
}

func NewFSUser(fs *Fs) *FSUser {
	return &FSUser{fs: fs}
}

type fileInfo struct {
	name  string
	attr  Attr
	mode  os.FileMode
	mtime time.Time
}

var _ os.FileInfo = &fileInfo{}

func (self *fileInfo) Name() string {
	return self.name
}

func (self *fileInfo) Size() int64 {
	return int64(self.attr.Size)
}

func (self *fileInfo) Mode() os.FileMode {
	return self.mode
}

func (self *fileInfo) ModTime() time.Time {
	return self.mtime
}

func (self *fileInfo) IsDir() bool {
	return self.Mode().IsDir()
}

// Sys returns the Attr of the file.
func (self *fileInfo) Sys() interface{} {
	return self.attr
}

func fileModeFromFuse(mode uint32) os.FileMode {
	r := os.FileMode(mode) & os.ModePerm
	switch mode & syscall.S_IFMT {
	case fuse.S_IFDIR:
		r |= os.ModeDir
	case fuse.S_IFLNK:
		r |= os.ModeSymlink
	}
	return r
}

func newFileInfo(name string, attr Attr) *fileInfo {
	return &fileInfo{name: name, attr: attr, mode: fileModeFromFuse(attr.Mode), mtime: attr.Mtime}
}

// Lstat is clone of os.Lstat
func (self *FSUser) Lstat(name string) (os.FileInfo, error) {
	attr, err := self.fs.GetAttr(name)
	if err != nil {
		return nil, err
	}
	return newFileInfo(path.Base(name), attr), nil
}

// Stat is clone of os.Stat; symlinks are followed one level.
func (self *FSUser) Stat(name string) (os.FileInfo, error) {
	fi, err := self.Lstat(name)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return fi, err
	}
	target, err := self.fs.Readlink(name)
	if err != nil {
		return nil, err
	}
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(name), target)
	}
	attr, err := self.fs.GetAttr(target)
	if err != nil {
		return nil, err
	}
	return newFileInfo(path.Base(name), attr), nil
}

// ListDir returns names in directory order.
func (self *FSUser) ListDir(name string) (ret []string, err error) {
	entries, err := self.fs.ReadDir(name)
	if err != nil {
		return
	}
	for _, e := range entries {
		ret = append(ret, e.Name)
	}
	return
}

// ReadDir is clone of ioutil.ReadDir (but in directory order)
func (self *FSUser) ReadDir(dirname string) (ret []os.FileInfo, err error) {
	mlog.Printf2("fs/fsuser", "ReadDir %s", dirname)
	l, err := self.ListDir(dirname)
	if err != nil {
		return
	}
	ret = make([]os.FileInfo, len(l))
	for i, n := range l {
		ret[i], err = self.Lstat(path.Join(dirname, n))
		if err != nil {
			return
		}
	}
	return
}

// Mkdir is clone of os.Mkdir
func (self *FSUser) Mkdir(name string, perm os.FileMode) error {
	return self.fs.Mkdir(name, uint32(perm.Perm()))
}

// MkdirAll is clone of os.MkdirAll
func (self *FSUser) MkdirAll(name string, perm os.FileMode) error {
	fi, err := self.Stat(name)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return ErrNotDirectory
	}
	if parent := path.Dir(cleanPath(name)); parent != "/" {
		if err = self.MkdirAll(parent, perm); err != nil {
			return err
		}
	}
	return self.Mkdir(name, perm)
}

// Remove is clone of os.Remove
func (self *FSUser) Remove(name string) error {
	fi, err := self.Lstat(name)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return self.fs.Rmdir(name)
	}
	return self.fs.Unlink(name)
}

func (self *FSUser) Rename(oldpath, newpath string) error {
	return self.fs.Rename(oldpath, newpath)
}

func (self *FSUser) Link(oldname, newname string) error {
	return self.fs.Link(oldname, newname)
}

func (self *FSUser) Symlink(oldname, newname string) error {
	return self.fs.Symlink(oldname, newname)
}

func (self *FSUser) Readlink(name string) (string, error) {
	return self.fs.Readlink(name)
}

func (self *FSUser) Chmod(name string, mode os.FileMode) error {
	return self.fs.Chmod(name, uint32(mode.Perm()))
}

func (self *FSUser) Chtimes(name string, atime, mtime time.Time) error {
	return self.fs.Utimens(name, &atime, &mtime)
}

// ReadFile is clone of ioutil.ReadFile
func (self *FSUser) ReadFile(name string) ([]byte, error) {
	attr, err := self.fs.GetAttr(name)
	if err != nil {
		return nil, err
	}
	return self.fs.Read(name, 0, attr.Size)
}

// WriteFile is clone of ioutil.WriteFile, except that an existing
// file is overwritten in place and never shrinks.
func (self *FSUser) WriteFile(name string, data []byte, perm os.FileMode) error {
	err := self.fs.Create(name, uint32(perm.Perm()))
	if err != nil && errors.Cause(err) != ErrExists {
		return err
	}
	_, err = self.fs.Write(name, 0, data)
	return err
}
