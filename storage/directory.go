/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 10:03:15 2026 mstenber
 * Last modified: Tue Oct 13 10:40:43 2026 mstenber
 * Edit time:     21 min
 *
 */

package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fingon/go-nufs/mlog"
	"golang.org/x/sys/unix"
)

type delayedUInt64ValueCallback func() uint64

// delayedUInt64Value caches a value that is expensive to compute; a
// stale value triggers recomputation in background, and the old one
// is returned meanwhile.
type delayedUInt64Value struct {
	interval   time.Duration
	value      uint64
	valueTime  time.Time
	valueMutex sync.Mutex
	going      bool
	callback   delayedUInt64ValueCallback
}

func (self *delayedUInt64Value) Value() uint64 {
	self.valueMutex.Lock()
	defer self.valueMutex.Unlock()
	if self.valueTime.IsZero() {
		// first call is synchronous so statfs is sane right away
		self.value = self.callback()
		self.valueTime = time.Now()
		return self.value
	}
	if self.going || self.valueTime.Add(self.interval).After(time.Now()) {
		return self.value
	}
	self.going = true
	go func() {
		value := self.callback()

		self.valueMutex.Lock()
		defer self.valueMutex.Unlock()
		self.value = value
		self.valueTime = time.Now()
		self.going = false
	}()
	return self.value
}

// DirectoryBackendBase is embedded by backends that keep their data
// within a directory; it provides the statfs related getters.
type DirectoryBackendBase struct {
	Dir string

	available, used delayedUInt64Value
}

func (self *DirectoryBackendBase) Init(config BackendConfiguration) error {
	dir := config.Directory
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	self.Dir = dir
	interval := config.ValueUpdateInterval
	minimumInterval := 5 * time.Second
	if interval < minimumInterval {
		interval = minimumInterval
	}
	self.available = delayedUInt64Value{interval: interval,
		callback: func() uint64 { return calculateAvailable(dir) }}
	self.used = delayedUInt64Value{interval: interval,
		callback: func() uint64 { return calculateUsed(dir) }}
	return nil
}

func calculateAvailable(dir string) uint64 {
	var st unix.Statfs_t
	err := unix.Statfs(dir, &st)
	if err != nil {
		return 0
	}
	r := uint64(st.Bsize) * st.Bavail
	mlog.Printf2("storage/directory", "calculateAvailable %v (%v * %v)", r, st.Bsize, st.Bavail)
	return r
}

func calculateUsed(dir string) (sum uint64) {
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			sum += uint64(info.Size())
		}
		return nil
	})
	return sum
}

func (self *DirectoryBackendBase) GetBytesAvailable() uint64 {
	return self.available.Value()
}

func (self *DirectoryBackendBase) GetBytesUsed() uint64 {
	return self.used.Value()
}
