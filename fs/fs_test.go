/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct 12 11:02:37 2026 mstenber
 * Last modified: Mon Oct 19 11:30:44 2026 mstenber
 * Edit time:     39 min
 *
 */

package fs

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/factory"
	"github.com/fingon/go-nufs/storage/inmemory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stvp/assert"
)

func newTestFsWithBackend(t *testing.T, be storage.Backend, g storage.Geometry) *Fs {
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: be, Geometry: g})
	require.NoError(t, err)
	fs, err := NewFs(st, Configuration{FlushInterval: -1})
	require.NoError(t, err)
	return fs
}

func newTestFs(t *testing.T, g storage.Geometry) *Fs {
	return newTestFsWithBackend(t, inmemory.NewInMemoryBackend(), g)
}

func assertCause(t *testing.T, err, expected error) {
	t.Helper()
	assert.True(t, err != nil)
	assert.Equal(t, errors.Cause(err), expected)
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestBootstrap(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t, storage.Geometry{})
	defer fs.Close()

	n, err := fs.Lookup("/")
	assert.Nil(t, err)
	assert.Equal(t, n, uint64(RootInode))

	ino, err := fs.getInode(RootInode)
	assert.Nil(t, err)
	assert.True(t, ino.IsDir())
	assert.Equal(t, ino.Mode&07777, uint32(0755))
	assert.Equal(t, ino.Size, uint64(storage.PageSize))
	assert.Equal(t, ino.RefCount, uint64(1))
	// root directory content is the first page of the data pool
	assert.Equal(t, ino.Direct[0], fs.geometry.FirstDataPage())

	sfs := fs.StatFs()
	assert.Equal(t, sfs.Files, uint64(storage.DefaultInodeCount))
	assert.Equal(t, sfs.Ffree, uint64(storage.DefaultInodeCount-1))
	assert.Equal(t, sfs.Bfree, uint64(storage.DefaultPageCount)-fs.geometry.FirstDataPage()-1)
}

func TestPersistence(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"file", "bolt", "badger"} {
		name := name
		t.Run(name, func(t *testing.T) {
			config := factory.StorageConfiguration{BackendName: name}
			config.Directory = t.TempDir()
			if name != "file" {
				config.Password = "pw"
				config.Compression = "zstd"
			}
			open := func() *Fs {
				st, err := factory.NewStore(config)
				require.NoError(t, err)
				fs, err := NewFs(st, Configuration{})
				require.NoError(t, err)
				return fs
			}
			fs := open()
			require.NoError(t, fs.Mkdir("/a", 0700))
			require.NoError(t, fs.Create("/a/b.txt", 0644))
			data := pattern(40000)
			written, err := fs.Write("/a/b.txt", 0, data)
			require.NoError(t, err)
			assert.Equal(t, written, len(data))
			require.NoError(t, fs.Symlink("b.txt", "/a/l"))
			attr, err := fs.GetAttr("/a/b.txt")
			require.NoError(t, err)
			sfs := fs.StatFs()
			require.NoError(t, fs.Close())
			require.NoError(t, fs.Close())

			fs = open()
			defer fs.Close()
			attr2, err := fs.GetAttr("/a/b.txt")
			require.NoError(t, err)
			assert.Equal(t, attr2, attr)
			got, err := fs.Read("/a/b.txt", 0, 100000)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(got, data))
			target, err := fs.Readlink("/a/l")
			require.NoError(t, err)
			assert.Equal(t, target, "b.txt")
			assert.Equal(t, fs.StatFs().Ffree, sfs.Ffree)
			assert.Equal(t, fs.StatFs().Bfree, sfs.Bfree)
		})
	}
}

func TestBackgroundFlush(t *testing.T) {
	t.Parallel()
	be := inmemory.NewInMemoryBackend()
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: be})
	require.NoError(t, err)
	fs, err := NewFs(st, Configuration{FlushInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	defer fs.Close()
	require.NoError(t, fs.Create("/x", 0600))
	for i := 0; i < 100; i++ {
		data, err := be.LoadPage(0)
		require.NoError(t, err)
		if data != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("superblock was never flushed")
}

// brokenPageBackend fails loads of one page.
type brokenPageBackend struct {
	storage.Backend
	page uint64
}

func (self *brokenPageBackend) LoadPage(i uint64) ([]byte, error) {
	if i == self.page {
		return nil, errors.Errorf("page %d unreadable", i)
	}
	return self.Backend.LoadPage(i)
}

func TestAllocInodeFailure(t *testing.T) {
	t.Parallel()
	g := storage.Geometry{PageCount: 256, InodeCount: 64}
	be := inmemory.NewInMemoryBackend()
	fs := newTestFsWithBackend(t, be, g)
	ipp := g.InodesPerPage()
	// fill the first inode table page (root included)
	for i := uint64(1); i < ipp; i++ {
		require.NoError(t, fs.Create(fmt.Sprintf("/f%d", i), 0644))
	}
	require.NoError(t, fs.Close())

	fs = newTestFsWithBackend(t, &brokenPageBackend{Backend: be, page: 2}, g)
	defer fs.Close()
	before := fs.StatFs()
	err := fs.Create("/g", 0644)
	assert.True(t, err != nil)
	assert.Equal(t, fs.StatFs(), before)
	_, err = fs.Lookup("/g")
	assertCause(t, err, ErrNotFound)
}
