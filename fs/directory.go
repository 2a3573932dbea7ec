/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 13:15:20 2026 mstenber
 * Last modified: Fri Oct 16 14:02:18 2026 mstenber
 * Edit time:     51 min
 *
 */

package fs

import (
	"bytes"

	"github.com/elliotwutingfeng/asciiset"
	"github.com/fingon/go-nufs/mlog"
	"github.com/pkg/errors"
	"github.com/tchajed/marshal"
)

// A directory is a single page of DirectoryCapacity entries of
// DirectoryEntrySize bytes: name (zero padded) and inode number.
// Inode number 0 is the root, which is never an entry, so it marks
// an empty slot.

var forbiddenNameBytes, _ = asciiset.MakeASCIISet("/\x00")

type dirent struct {
	name string
	ino  uint64
}

func validateName(name string) error {
	if len(name) > DirectoryNameLength {
		return errors.Wrapf(ErrNameTooLong, "%d bytes", len(name))
	}
	if name == "" || name == "." || name == ".." {
		return errors.Wrapf(ErrInvalid, "name %q", name)
	}
	for i := 0; i < len(name); i++ {
		if forbiddenNameBytes.Contains(name[i]) {
			return errors.Wrapf(ErrInvalid, "name %q", name)
		}
	}
	return nil
}

func decodeDirent(data []byte) dirent {
	dec := marshal.NewDec(data[:DirectoryEntrySize])
	name := dec.GetBytes(DirectoryNameLength)
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return dirent{name: string(name), ino: dec.GetInt()}
}

func encodeDirent(data []byte, e dirent) {
	name := make([]byte, DirectoryNameLength)
	copy(name, e.name)
	enc := marshal.NewEnc(DirectoryEntrySize)
	enc.PutBytes(name)
	enc.PutInt(e.ino)
	copy(data[:DirectoryEntrySize], enc.Finish())
}

// dirSlots calls cb with every slot of directory n, until cb returns
// false.
func (self *Fs) dirSlots(n uint64, cb func(slot int, e dirent) bool) (*Inode, error) {
	ino, err := self.getInode(n)
	if err != nil {
		return nil, err
	}
	if !ino.IsDir() {
		return nil, errors.Wrapf(ErrNotDirectory, "inode %d", n)
	}
	data, err := self.store.Page(ino.Direct[0])
	if err != nil {
		return nil, err
	}
	for i := 0; i < DirectoryCapacity; i++ {
		if !cb(i, decodeDirent(data[i*DirectoryEntrySize:])) {
			break
		}
	}
	return ino, nil
}

func (self *Fs) dirLookup(n uint64, name string) (found uint64, err error) {
	ok := false
	_, err = self.dirSlots(n, func(slot int, e dirent) bool {
		if e.ino != 0 && e.name == name {
			found = e.ino
			ok = true
			return false
		}
		return true
	})
	if err == nil && !ok {
		err = errors.Wrapf(ErrNotFound, "%q in inode %d", name, n)
	}
	return
}

func (self *Fs) dirEntries(n uint64) (entries []dirent, err error) {
	_, err = self.dirSlots(n, func(slot int, e dirent) bool {
		if e.ino != 0 {
			entries = append(entries, e)
		}
		return true
	})
	return
}

func (self *Fs) writeDirent(ino *Inode, slot int, e dirent) error {
	data, err := self.store.DirtyPage(ino.Direct[0])
	if err != nil {
		return err
	}
	encodeDirent(data[slot*DirectoryEntrySize:], e)
	return nil
}

// dirInsert adds name -> target to directory n, in the first empty
// slot.
func (self *Fs) dirInsert(n uint64, name string, target uint64) error {
	if err := validateName(name); err != nil {
		return err
	}
	free := -1
	exists := false
	ino, err := self.dirSlots(n, func(slot int, e dirent) bool {
		if e.ino == 0 {
			if free < 0 {
				free = slot
			}
			return true
		}
		if e.name == name {
			exists = true
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrExists, "%q in inode %d", name, n)
	}
	if free < 0 {
		mlog.Printf2("fs/directory", "dirInsert %d %q: full", n, name)
		return errors.Wrapf(ErrFull, "inode %d", n)
	}
	if err = self.writeDirent(ino, free, dirent{name: name, ino: target}); err != nil {
		return err
	}
	ino.setTimes(self.now(), false, true, true)
	mlog.Printf2("fs/directory", "dirInsert %d %q -> %d at %d", n, name, target, free)
	return self.putInode(n, ino)
}

// dirRemove clears the slot of name in directory n.
func (self *Fs) dirRemove(n uint64, name string) error {
	found := -1
	ino, err := self.dirSlots(n, func(slot int, e dirent) bool {
		if e.ino != 0 && e.name == name {
			found = slot
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if found < 0 {
		return errors.Wrapf(ErrNotFound, "%q in inode %d", name, n)
	}
	if err = self.writeDirent(ino, found, dirent{}); err != nil {
		return err
	}
	ino.setTimes(self.now(), false, true, true)
	mlog.Printf2("fs/directory", "dirRemove %d %q at %d", n, name, found)
	return self.putInode(n, ino)
}
