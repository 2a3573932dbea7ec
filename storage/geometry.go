/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 10:38:02 2026 mstenber
 * Last modified: Mon Oct 12 15:10:44 2026 mstenber
 * Edit time:     24 min
 *
 */

package storage

import (
	"fmt"

	"github.com/fingon/go-nufs/bitmap"
	"github.com/fingon/go-nufs/util"
	"github.com/pkg/errors"
)

// Geometry describes the fixed layout of an image:
//
// - page 0: superblock, page bitmap and inode bitmap
// - pages 1..InodeTablePages(): inode table
// - rest: data pool, first page of which is the root directory
type Geometry struct {
	PageCount, InodeCount uint64
}

var DefaultGeometry = Geometry{PageCount: DefaultPageCount, InodeCount: DefaultInodeCount}

func (self Geometry) String() string {
	return fmt.Sprintf("%d pages/%d inodes", self.PageCount, self.InodeCount)
}

// WithDefaults returns the geometry with zero fields replaced by defaults.
func (self Geometry) WithDefaults() Geometry {
	if self.PageCount == 0 {
		self.PageCount = DefaultPageCount
	}
	if self.InodeCount == 0 {
		self.InodeCount = DefaultInodeCount
	}
	return self
}

func (self Geometry) InodesPerPage() uint64 {
	return PageSize / InodeRecordSize
}

func (self Geometry) InodeTablePages() uint64 {
	return util.CeilDiv(self.InodeCount*InodeRecordSize, PageSize)
}

// FirstDataPage is the first page index handed out by AllocPage.
func (self Geometry) FirstDataPage() uint64 {
	return 1 + self.InodeTablePages()
}

// InodeLocation returns page and byte offset of inode n's record.
func (self Geometry) InodeLocation(n uint64) (page uint64, offset int) {
	ipp := self.InodesPerPage()
	return 1 + n/ipp, int(n%ipp) * InodeRecordSize
}

func (self Geometry) bitmapsSize() int {
	return bitmap.Bytes(int(self.PageCount)) + bitmap.Bytes(int(self.InodeCount))
}

// Validate checks that both bitmaps fit in the superblock and that
// there is at least one data page.
func (self Geometry) Validate() error {
	if self.InodeCount == 0 {
		return errors.Errorf("geometry %v: no inodes", self)
	}
	if self.PageCount <= self.FirstDataPage() {
		return errors.Errorf("geometry %v: no room for data pages", self)
	}
	if superblockBitmapsOffset+self.bitmapsSize() > PageSize {
		return errors.Errorf("geometry %v: bitmaps do not fit in superblock", self)
	}
	return nil
}
