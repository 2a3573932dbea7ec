/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 10:02:11 2026 mstenber
 * Last modified: Mon Oct 12 16:40:52 2026 mstenber
 * Edit time:     6 min
 *
 */

package fs

import (
	"time"

	"github.com/fingon/go-nufs/storage"
)

const (
	RootInode = 0

	DirectPointers = 6

	// IndirectEntries is the number of page indexes in an indirect page.
	IndirectEntries = storage.PageSize / 8

	// MaxFilePages is the number of addressable pages of a file.
	MaxFilePages = DirectPointers + IndirectEntries

	DirectoryEntrySize  = 64
	DirectoryNameLength = DirectoryEntrySize - 8
	DirectoryCapacity   = storage.PageSize / DirectoryEntrySize

	// sectorSize is the unit of Attr.Blocks
	sectorSize = 512

	DefaultFlushInterval = 1 * time.Second
)
