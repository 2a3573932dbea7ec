/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 11:02:46 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     44 min
 *
 */

package fs

import (
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/pkg/errors"
	"github.com/tchajed/marshal"
)

func (self *Fs) checkInode(n uint64) error {
	if n >= self.geometry.InodeCount {
		return errors.Wrapf(ErrInvalid, "inode %d out of range", n)
	}
	return nil
}

func (self *Fs) getInode(n uint64) (*Inode, error) {
	if err := self.checkInode(n); err != nil {
		return nil, err
	}
	page, off := self.geometry.InodeLocation(n)
	data, err := self.store.Page(page)
	if err != nil {
		return nil, err
	}
	ino := &Inode{}
	ino.decode(data[off:])
	return ino, nil
}

func (self *Fs) putInode(n uint64, ino *Inode) error {
	if err := self.checkInode(n); err != nil {
		return err
	}
	page, off := self.geometry.InodeLocation(n)
	data, err := self.store.DirtyPage(page)
	if err != nil {
		return err
	}
	ino.encode(data[off:])
	return nil
}

func (self *Fs) allocPage() (uint64, error) {
	i, err := self.store.AllocPage()
	return i, storageError(err)
}

// allocInode takes the first free inode slot, and initializes it with
// one zero-filled data page.
func (self *Fs) allocInode(mode uint32) (uint64, *Inode, error) {
	self.lock.AssertLocked()
	bm := self.store.InodeBitmap()
	slot, ok := bm.FirstClear(0)
	if !ok {
		mlog.Printf2("fs/inodetable", "allocInode: no free inodes")
		return 0, nil, errors.Wrap(ErrResourceExhausted, "no free inodes")
	}
	n := uint64(slot)
	page, err := self.allocPage()
	if err != nil {
		return 0, nil, err
	}
	ino := &Inode{Mode: mode, RefCount: 1}
	ino.Direct[0] = page
	if ino.IsDir() {
		ino.Size = storage.PageSize
	}
	ino.setTimes(self.now(), true, true, true)
	if err = self.putInode(n, ino); err != nil {
		if rerr := self.store.ReleasePage(page); rerr != nil {
			mlog.Printf2("fs/inodetable", " ReleasePage %d failed: %v", page, rerr)
		}
		return 0, nil, err
	}
	bm.Put(slot, true)
	mlog.Printf2("fs/inodetable", "allocInode %o -> %d (page %d)", mode, n, page)
	return n, ino, nil
}

// freeInode releases every page the inode owns, and its slot.
func (self *Fs) freeInode(n uint64, ino *Inode) error {
	self.lock.AssertLocked()
	mlog.Printf2("fs/inodetable", "freeInode %d %v", n, ino)
	for _, p := range ino.Direct {
		if p != 0 {
			if err := self.store.ReleasePage(p); err != nil {
				return err
			}
		}
	}
	if ino.Indirect != 0 {
		data, err := self.store.Page(ino.Indirect)
		if err != nil {
			return err
		}
		for _, p := range marshal.NewDec(data).GetInts(IndirectEntries) {
			if p != 0 {
				if err := self.store.ReleasePage(p); err != nil {
					return err
				}
			}
		}
		if err := self.store.ReleasePage(ino.Indirect); err != nil {
			return err
		}
	}
	*ino = Inode{}
	if err := self.putInode(n, ino); err != nil {
		return err
	}
	self.store.InodeBitmap().Put(int(n), false)
	return nil
}

// pageCount returns the number of pages the inode owns, including
// the indirect page.
func (self *Fs) pageCount(ino *Inode) (count uint64, err error) {
	for _, p := range ino.Direct {
		if p != 0 {
			count++
		}
	}
	if ino.Indirect == 0 {
		return
	}
	count++
	data, err := self.store.Page(ino.Indirect)
	if err != nil {
		return
	}
	for _, p := range marshal.NewDec(data).GetInts(IndirectEntries) {
		if p != 0 {
			count++
		}
	}
	return
}
