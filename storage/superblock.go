/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 11:02:58 2026 mstenber
 * Last modified: Mon Oct 12 15:28:07 2026 mstenber
 * Edit time:     31 min
 *
 */

package storage

import (
	"github.com/fingon/go-nufs/bitmap"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tchajed/marshal"
)

var ErrCorrupt = errors.New("storage: corrupt superblock")

type superblock struct {
	geometry    Geometry
	uuid        uuid.UUID
	pageBitmap  *bitmap.Bitmap
	inodeBitmap *bitmap.Bitmap
}

// newSuperblock lays out a fresh superblock within page.
func newSuperblock(page []byte, g Geometry) *superblock {
	for i := range page {
		page[i] = 0
	}
	self := &superblock{geometry: g, uuid: uuid.New()}
	enc := marshal.NewEnc(superblockHeaderSize)
	enc.PutInt(superblockMagic)
	enc.PutInt(superblockVersion)
	enc.PutInt(PageSize)
	enc.PutInt(g.PageCount)
	enc.PutInt(g.InodeCount)
	copy(page, enc.Finish())
	copy(page[superblockUUIDOffset:], self.uuid[:])
	self.bindBitmaps(page)
	return self
}

// loadSuperblock parses an existing superblock page.
func loadSuperblock(page []byte) (*superblock, error) {
	dec := marshal.NewDec(page[:superblockHeaderSize])
	if dec.GetInt() != superblockMagic {
		return nil, errors.Wrap(ErrCorrupt, "bad magic")
	}
	if v := dec.GetInt(); v != superblockVersion {
		return nil, errors.Wrapf(ErrCorrupt, "unsupported version %d", v)
	}
	if ps := dec.GetInt(); ps != PageSize {
		return nil, errors.Wrapf(ErrCorrupt, "page size %d", ps)
	}
	g := Geometry{PageCount: dec.GetInt(), InodeCount: dec.GetInt()}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	self := &superblock{geometry: g}
	copy(self.uuid[:], page[superblockUUIDOffset:superblockUUIDOffset+len(self.uuid)])
	self.bindBitmaps(page)
	return self, nil
}

func (self *superblock) bindBitmaps(page []byte) {
	pc := int(self.geometry.PageCount)
	ic := int(self.geometry.InodeCount)
	pb := page[superblockBitmapsOffset:]
	self.pageBitmap = bitmap.New(pb, pc)
	self.inodeBitmap = bitmap.New(pb[bitmap.Bytes(pc):], ic)
}
