/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 11:40:27 2026 mstenber
 * Last modified: Fri Oct 16 11:02:36 2026 mstenber
 * Edit time:     142 min
 *
 */

package storage

import (
	"sort"

	"github.com/fingon/go-nufs/bitmap"
	"github.com/fingon/go-nufs/codec"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNoSpace = errors.New("storage: no free pages")
var ErrOutOfRange = errors.New("storage: page index out of range")

type StoreConfiguration struct {
	Backend Backend

	// Codec is applied to pages if set and non-empty; the backend
	// must then Support CodecFeature.
	Codec codec.Codec

	// Geometry is used only when formatting a new image; an
	// existing superblock always wins.
	Geometry Geometry
}

type StoreStats struct {
	TotalPages, FreePages   uint64
	TotalInodes, FreeInodes uint64
	Reads, Writes           int
	BytesAvailable          uint64
	BytesUsed               uint64
}

// Store is the page arena of the filesystem. All pages are kept in
// memory once touched; dirty ones are written to the Backend on
// Flush.
//
// The page slices it hands out are owned by the Store, and they are
// valid only until the caller releases whatever lock serializes its
// use of the Store.
type Store struct {
	backend   Backend
	sb        *superblock
	formatted bool

	// pages that have been loaded (or allocated); nil if not yet
	pages [][]byte
	dirty map[uint64]bool

	lock          util.MutexLocked
	reads, writes int
}

// NewStore opens the image in the backend, or formats a new one if
// the backend has no superblock yet.
func NewStore(config StoreConfiguration) (*Store, error) {
	be := config.Backend
	if be == nil {
		return nil, errors.New("storage: no backend")
	}
	if chain, ok := config.Codec.(*codec.CodecChain); config.Codec != nil && (!ok || chain.Len() > 0) {
		if !be.Supports(CodecFeature) {
			return nil, errors.New("storage: backend does not support codecs")
		}
		be = newCodecBackend(be, config.Codec)
	}
	self := &Store{backend: be, dirty: make(map[uint64]bool)}
	data, err := be.LoadPage(0)
	if err != nil {
		return nil, errors.Wrap(err, "loading superblock")
	}
	if data != nil && !isZero(data) {
		page := make([]byte, PageSize)
		copy(page, data)
		self.sb, err = loadSuperblock(page)
		if err != nil {
			return nil, err
		}
		self.pages = make([][]byte, self.sb.geometry.PageCount)
		self.pages[0] = page
		mlog.Printf2("storage/storage", "NewStore loaded %v %v", self.sb.geometry, self.sb.uuid)
		return self, nil
	}
	g := config.Geometry.WithDefaults()
	if err = g.Validate(); err != nil {
		return nil, err
	}
	self.pages = make([][]byte, g.PageCount)
	page := make([]byte, PageSize)
	self.pages[0] = page
	self.sb = newSuperblock(page, g)
	self.formatted = true
	self.dirty[0] = true
	for i := uint64(0); i < g.FirstDataPage(); i++ {
		self.sb.pageBitmap.Put(int(i), true)
		if i > 0 {
			// stale inode table content must not survive
			self.pages[i] = make([]byte, PageSize)
			self.dirty[i] = true
		}
	}
	mlog.Printf2("storage/storage", "NewStore formatted %v %v", g, self.sb.uuid)
	return self, nil
}

func isZero(data []byte) bool {
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}

func (self *Store) Geometry() Geometry {
	return self.sb.geometry
}

func (self *Store) UUID() uuid.UUID {
	return self.sb.uuid
}

// Formatted is true if NewStore created a fresh image.
func (self *Store) Formatted() bool {
	return self.formatted
}

func (self *Store) checkIndex(i uint64) error {
	if i >= self.sb.geometry.PageCount {
		return errors.Wrapf(ErrOutOfRange, "page %d", i)
	}
	return nil
}

func (self *Store) getPage(i uint64) ([]byte, error) {
	if err := self.checkIndex(i); err != nil {
		return nil, err
	}
	if p := self.pages[i]; p != nil {
		return p, nil
	}
	page := make([]byte, PageSize)
	data, err := self.backend.LoadPage(i)
	if err != nil {
		return nil, errors.Wrapf(err, "loading page %d", i)
	}
	copy(page, data)
	self.reads++
	self.pages[i] = page
	return page, nil
}

// Page returns page i for reading.
func (self *Store) Page(i uint64) ([]byte, error) {
	defer self.lock.Locked()()
	return self.getPage(i)
}

// DirtyPage returns page i for modification; it will be written on
// the next Flush.
func (self *Store) DirtyPage(i uint64) ([]byte, error) {
	defer self.lock.Locked()()
	p, err := self.getPage(i)
	if err == nil {
		self.dirty[i] = true
	}
	return p, err
}

// AllocPage returns index of a free, zero-filled data page.
func (self *Store) AllocPage() (uint64, error) {
	defer self.lock.Locked()()
	g := self.sb.geometry
	n, ok := self.sb.pageBitmap.FirstClear(int(g.FirstDataPage()))
	if !ok {
		mlog.Printf2("storage/storage", "AllocPage: no space")
		return 0, ErrNoSpace
	}
	i := uint64(n)
	self.sb.pageBitmap.Put(n, true)
	self.pages[i] = make([]byte, PageSize)
	self.dirty[i] = true
	self.dirty[0] = true
	mlog.Printf2("storage/storage", "AllocPage -> %d", i)
	return i, nil
}

// ReleasePage returns a data page to the free pool.
func (self *Store) ReleasePage(i uint64) error {
	defer self.lock.Locked()()
	if err := self.checkIndex(i); err != nil {
		return err
	}
	if i < self.sb.geometry.FirstDataPage() {
		return errors.Wrapf(ErrOutOfRange, "page %d is reserved", i)
	}
	if !self.sb.pageBitmap.Get(int(i)) {
		return errors.Errorf("storage: page %d is not allocated", i)
	}
	mlog.Printf2("storage/storage", "ReleasePage %d", i)
	self.sb.pageBitmap.Put(int(i), false)
	self.dirty[0] = true
	return nil
}

// InodeBitmap returns the inode allocation bitmap. The superblock is
// assumed to be modified through it.
func (self *Store) InodeBitmap() *bitmap.Bitmap {
	defer self.lock.Locked()()
	self.dirty[0] = true
	return self.sb.inodeBitmap
}

func (self *Store) Stats() StoreStats {
	defer self.lock.Locked()()
	g := self.sb.geometry
	return StoreStats{
		TotalPages:     g.PageCount,
		FreePages:      g.PageCount - uint64(self.sb.pageBitmap.Count()),
		TotalInodes:    g.InodeCount,
		FreeInodes:     g.InodeCount - uint64(self.sb.inodeBitmap.Count()),
		Reads:          self.reads,
		Writes:         self.writes,
		BytesAvailable: self.backend.GetBytesAvailable(),
		BytesUsed:      self.backend.GetBytesUsed(),
	}
}

// Flush writes dirty pages to the backend in index order and syncs
// it. Returns the number of pages written.
func (self *Store) Flush() (int, error) {
	defer self.lock.Locked()()
	if len(self.dirty) == 0 {
		return 0, nil
	}
	keys := make([]uint64, 0, len(self.dirty))
	for k := range self.dirty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	mlog.Printf2("storage/storage", "st.Flush %d pages (%d reads, %d writes so far)", len(keys), self.reads, self.writes)
	for _, k := range keys {
		if err := self.backend.StorePage(k, self.pages[k]); err != nil {
			return 0, errors.Wrapf(err, "storing page %d", k)
		}
		delete(self.dirty, k)
		self.writes++
	}
	if err := self.backend.Sync(); err != nil {
		return len(keys), errors.Wrap(err, "sync")
	}
	return len(keys), nil
}

// Close flushes and closes the backend.
func (self *Store) Close() error {
	_, err := self.Flush()
	cerr := self.backend.Close()
	if err == nil {
		err = cerr
	}
	return err
}
