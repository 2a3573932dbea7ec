/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 13:10:52 2026 mstenber
 * Last modified: Tue Oct 13 10:50:17 2026 mstenber
 * Edit time:     14 min
 *
 */

package inmemory

import (
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/util"
)

// inMemoryBackend provides in-memory storage; pages are just copied
// to a map. Useful for tests and throwaway mounts.
type inMemoryBackend struct {
	pages map[uint64][]byte
	used  uint64
	lock  util.MutexLocked
}

var _ storage.Backend = &inMemoryBackend{}

func NewInMemoryBackend() storage.Backend {
	return &inMemoryBackend{pages: make(map[uint64][]byte)}
}

func (self *inMemoryBackend) Init(config storage.BackendConfiguration) error {
	return nil
}

func (self *inMemoryBackend) Close() error {
	return nil
}

func (self *inMemoryBackend) LoadPage(i uint64) ([]byte, error) {
	defer self.lock.Locked()()
	data, ok := self.pages[i]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (self *inMemoryBackend) StorePage(i uint64, data []byte) error {
	defer self.lock.Locked()()
	mlog.Printf2("storage/inmemory/inmemory", "im.StorePage %d (%d b)", i, len(data))
	self.used -= uint64(len(self.pages[i]))
	self.pages[i] = append([]byte(nil), data...)
	self.used += uint64(len(data))
	return nil
}

func (self *inMemoryBackend) Sync() error {
	return nil
}

func (self *inMemoryBackend) Supports(feature storage.Feature) bool {
	return feature == storage.CodecFeature
}

func (self *inMemoryBackend) GetBytesAvailable() uint64 {
	return 0
}

func (self *inMemoryBackend) GetBytesUsed() uint64 {
	defer self.lock.Locked()()
	return self.used
}
