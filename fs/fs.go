/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Fri Oct  9 11:04:40 2026 mstenber
 * Last modified: Mon Oct 19 09:21:13 2026 mstenber
 * Edit time:     66 min
 *
 */

// fs package implements the filesystem engine: inode table,
// single-page directories, path resolution and direct + single
// indirect block addressing, on top of a storage.Store.
//
// The API is path based; every public operation resolves its paths
// from the root and runs under one global lock from start to end.
package fs

import (
	"sync"
	"time"

	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/util"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/pkg/errors"
)

type Configuration struct {
	// FlushInterval is how often dirty pages are written to the
	// backend in background. Zero means DefaultFlushInterval,
	// negative disables background flushing.
	FlushInterval time.Duration
}

type Fs struct {
	lock      util.MutexLocked
	store     *storage.Store
	geometry  storage.Geometry
	now       func() time.Time
	closing   chan chan struct{}
	closeOnce sync.Once
}

func NewFs(st *storage.Store, config Configuration) (*Fs, error) {
	fs := &Fs{store: st, geometry: st.Geometry(), now: time.Now}
	if !st.InodeBitmap().Get(RootInode) {
		if err := fs.bootstrap(); err != nil {
			return nil, err
		}
	}
	interval := config.FlushInterval
	if interval == 0 {
		interval = DefaultFlushInterval
	}
	if interval > 0 {
		fs.closing = make(chan chan struct{})
		go func() {
			for {
				select {
				case done := <-fs.closing:
					fs.Flush()
					done <- struct{}{}
					return
				case <-time.After(interval):
					fs.Flush()
				}
			}
		}()
	}
	return fs, nil
}

// bootstrap creates the root directory, which gets inode 0 and the
// first page of the data pool.
func (self *Fs) bootstrap() error {
	defer self.lock.Locked()()
	n, ino, err := self.allocInode(fuse.S_IFDIR | 0755)
	if err != nil {
		return errors.Wrap(err, "creating root directory")
	}
	if n != RootInode {
		return errors.Errorf("root directory got inode %d", n)
	}
	mlog.Printf2("fs/fs", "bootstrap: root %v", ino)
	return nil
}

// Flush writes dirty pages to the backend.
func (self *Fs) Flush() error {
	defer self.lock.Locked()()
	mlog.Printf2("fs/fs", "fs.Flush started")
	n, err := self.store.Flush()
	mlog.Printf2("fs/fs", " .. done with fs.Flush: %d pages, err:%v", n, err)
	return err
}

// Close stops the background flushing, flushes and closes the store.
func (self *Fs) Close() (err error) {
	mlog.Printf2("fs/fs", "fs.Close")
	self.closeOnce.Do(func() {
		if self.closing != nil {
			// this will kill the goroutine once it has flushed
			done := make(chan struct{})
			self.closing <- done
			<-done
		}
		defer self.lock.Locked()()
		err = self.store.Close()
	})
	return
}

func (self *Fs) Store() *storage.Store {
	return self.store
}
