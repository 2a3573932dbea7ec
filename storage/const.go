/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 10:30:40 2026 mstenber
 * Last modified: Mon Oct 12 15:02:19 2026 mstenber
 * Edit time:     7 min
 *
 */

package storage

const (
	PageSize = 4096

	// InodeRecordSize is the space reserved per inode in the inode
	// table pages.
	InodeRecordSize = 128

	DefaultPageCount  = 256
	DefaultInodeCount = 251

	superblockMagic   uint64 = 0x6e7566732d676f31 // nufs-go1
	superblockVersion uint64 = 1

	superblockHeaderSize    = 40
	superblockUUIDOffset    = 40
	superblockBitmapsOffset = 64
)
