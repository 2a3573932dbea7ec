/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Fri Oct  9 09:12:33 2026 mstenber
 * Last modified: Fri Oct 16 14:31:09 2026 mstenber
 * Edit time:     73 min
 *
 */

package fs

import (
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/util"
	"github.com/pkg/errors"
	"github.com/tchajed/marshal"
)

const pageSize = storage.PageSize

func getIndirect(data []byte, idx uint64) uint64 {
	return marshal.NewDec(data[idx*8 : idx*8+8]).GetInt()
}

func putIndirect(data []byte, idx, value uint64) {
	enc := marshal.NewEnc(8)
	enc.PutInt(value)
	copy(data[idx*8:idx*8+8], enc.Finish())
}

// pageFor maps logical page p of the file to a store page: direct
// pointers first, then the entries of the indirect page. With
// allocate, missing pages (including the indirect one) are allocated
// and recorded in ino; the caller is responsible for storing ino.
// Without allocate, 0 is returned for a hole.
func (self *Fs) pageFor(ino *Inode, p uint64, allocate bool) (uint64, error) {
	if p >= MaxFilePages {
		return 0, errors.Wrapf(ErrFileTooLarge, "page %d", p)
	}
	if p < DirectPointers {
		if ino.Direct[p] == 0 && allocate {
			i, err := self.allocPage()
			if err != nil {
				return 0, err
			}
			ino.Direct[p] = i
		}
		return ino.Direct[p], nil
	}
	if ino.Indirect == 0 {
		if !allocate {
			return 0, nil
		}
		i, err := self.allocPage()
		if err != nil {
			return 0, err
		}
		ino.Indirect = i
	}
	idx := p - DirectPointers
	data, err := self.store.Page(ino.Indirect)
	if err != nil {
		return 0, err
	}
	i := getIndirect(data, idx)
	if i != 0 || !allocate {
		return i, nil
	}
	i, err = self.allocPage()
	if err != nil {
		return 0, err
	}
	data, err = self.store.DirtyPage(ino.Indirect)
	if err != nil {
		return 0, err
	}
	putIndirect(data, idx, i)
	return i, nil
}

// readData returns up to size bytes at offset; the range is clamped
// to the file size, and holes read as zeros.
func (self *Fs) readData(n uint64, ino *Inode, offset, size uint64) ([]byte, error) {
	end := offset
	if offset < ino.Size {
		end += util.U64Min(size, ino.Size-offset)
	}
	buf := make([]byte, end-offset)
	for pos := offset; pos < end; {
		p := pos / pageSize
		po := pos % pageSize
		l := util.U64Min(pageSize-po, end-pos)
		i, err := self.pageFor(ino, p, false)
		if err != nil {
			return nil, err
		}
		if i != 0 {
			data, err := self.store.Page(i)
			if err != nil {
				return nil, err
			}
			copy(buf[pos-offset:], data[po:po+l])
		}
		pos += l
	}
	ino.setTimes(self.now(), true, false, false)
	return buf, self.putInode(n, ino)
}

// writeData allocates the pages covering [offset, offset+len(data))
// and copies data there. If allocation fails part way, the pages
// allocated so far are kept and size and times are still updated,
// but nothing is copied.
func (self *Fs) writeData(n uint64, ino *Inode, offset uint64, data []byte) (int, error) {
	now := self.now()
	if len(data) == 0 {
		ino.setTimes(now, false, true, true)
		return 0, self.putInode(n, ino)
	}
	end := offset + uint64(len(data))
	first, last := offset/pageSize, (end-1)/pageSize
	if last >= MaxFilePages {
		return 0, errors.Wrapf(ErrFileTooLarge, "write ending at %d", end)
	}
	var allocErr error
	for p := first; p <= last; p++ {
		if _, allocErr = self.pageFor(ino, p, true); allocErr != nil {
			mlog.Printf2("fs/data", "writeData %d: allocation of page %d failed: %v", n, p, allocErr)
			break
		}
	}
	ino.Size = util.U64Max(ino.Size, end)
	ino.setTimes(now, false, true, true)
	if err := self.putInode(n, ino); err != nil {
		return 0, err
	}
	if allocErr != nil {
		return 0, allocErr
	}
	for pos := offset; pos < end; {
		p := pos / pageSize
		po := pos % pageSize
		l := util.U64Min(pageSize-po, end-pos)
		i, err := self.pageFor(ino, p, false)
		if err != nil {
			return 0, err
		}
		page, err := self.store.DirtyPage(i)
		if err != nil {
			return 0, err
		}
		copy(page[po:po+l], data[pos-offset:pos-offset+l])
		pos += l
	}
	return len(data), nil
}
