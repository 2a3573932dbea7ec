/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct 15 11:20:40 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     26 min
 *
 */

package fusefs

import (
	"syscall"
	"testing"

	"github.com/fingon/go-nufs/fs"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/inmemory"
	"github.com/hanwen/go-fuse/fuse"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stvp/assert"
)

func newTestFs(t *testing.T) (*fs.Fs, *fuseFs) {
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: inmemory.NewInMemoryBackend()})
	require.NoError(t, err)
	f, err := fs.NewFs(st, fs.Configuration{FlushInterval: -1})
	require.NoError(t, err)
	return f, New(f).(*fuseFs)
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()
	for err, status := range map[error]fuse.Status{
		nil:                        fuse.OK,
		fs.ErrNotFound:             fuse.ENOENT,
		fs.ErrFull:                 fuse.Status(syscall.ENOSPC),
		fs.ErrResourceExhausted:    fuse.Status(syscall.ENOSPC),
		fs.ErrExists:               fuse.Status(syscall.EEXIST),
		fs.ErrNotDirectory:         fuse.Status(syscall.ENOTDIR),
		fs.ErrNameTooLong:          fuse.Status(syscall.ENAMETOOLONG),
		fs.ErrFileTooLarge:         fuse.Status(syscall.EFBIG),
		fs.ErrNotEmpty:             fuse.Status(syscall.ENOTEMPTY),
		fs.ErrInvalid:              fuse.EINVAL,
		errors.New("disk on fire"): fuse.EIO,
	} {
		assert.Equal(t, errorStatus(err), status, err)
		if err != nil {
			assert.Equal(t, errorStatus(errors.Wrap(err, "context")), status, err)
		}
	}
}

func TestOps(t *testing.T) {
	t.Parallel()
	f, ffs := newTestFs(t)
	defer f.Close()

	attr, code := ffs.GetAttr("", nil)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, attr.Ino, uint64(fuse.FUSE_ROOT_ID))
	assert.Equal(t, attr.Mode, uint32(fuse.S_IFDIR|0755))

	assert.Equal(t, ffs.Mkdir("d", 0700, nil), fuse.OK)
	assert.Equal(t, ffs.Mkdir("d", 0700, nil), fuse.Status(syscall.EEXIST))
	file, code := ffs.Create("d/f", uint32(syscall.O_RDWR), 0644, nil)
	assert.Equal(t, code, fuse.OK)
	_, code = ffs.Create("d/f", uint32(syscall.O_RDWR|syscall.O_EXCL), 0644, nil)
	assert.Equal(t, code, fuse.Status(syscall.EEXIST))

	n, code := file.Write([]byte("hello world"), 3)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, n, uint32(11))

	file, code = ffs.Open("d/f", uint32(syscall.O_RDONLY), nil)
	assert.Equal(t, code, fuse.OK)
	buf := make([]byte, 100)
	rr, code := file.Read(buf, 3)
	assert.Equal(t, code, fuse.OK)
	data, code := rr.Bytes(buf)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, string(data), "hello world")

	fattr := &fuse.Attr{}
	assert.Equal(t, file.GetAttr(fattr), fuse.OK)
	assert.Equal(t, fattr.Size, uint64(14))
	assert.Equal(t, fattr.Mode, uint32(fuse.S_IFREG|0644))
	assert.Equal(t, file.Chmod(0600), fuse.OK)
	attr, code = ffs.GetAttr("d/f", nil)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, attr.Mode, uint32(fuse.S_IFREG|0600))
	assert.Equal(t, attr.Nlink, uint32(1))

	_, code = ffs.Open("d/missing", 0, nil)
	assert.Equal(t, code, fuse.ENOENT)

	assert.Equal(t, ffs.Symlink("f", "d/l", nil), fuse.OK)
	target, code := ffs.Readlink("d/l", nil)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, target, "f")
	assert.Equal(t, ffs.Link("d/f", "d/g", nil), fuse.OK)
	assert.Equal(t, ffs.Rename("d/g", "h", nil), fuse.OK)

	entries, code := ffs.OpenDir("d", nil)
	assert.Equal(t, code, fuse.OK)
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Name, "f")
	assert.Equal(t, entries[1].Name, "l")
	assert.Equal(t, entries[1].Mode, uint32(fuse.S_IFLNK|0777))

	assert.Equal(t, ffs.Unlink("h", nil), fuse.OK)
	assert.Equal(t, ffs.Unlink("h", nil), fuse.ENOENT)
	assert.Equal(t, ffs.Access("d/f", 0, nil), fuse.OK)
	assert.Equal(t, ffs.Truncate("d/f", 0, nil), fuse.OK)
	assert.Equal(t, ffs.Mknod("d/n", fuse.S_IFREG|0644, 0, nil), fuse.OK)
	assert.Equal(t, ffs.Rmdir("d", nil), fuse.OK)
	_, code = ffs.GetAttr("d", nil)
	assert.Equal(t, code, fuse.ENOENT)

	sfs := ffs.StatFs("")
	assert.Equal(t, sfs.Bsize, uint32(storage.PageSize))
	assert.Equal(t, sfs.Blocks, uint64(storage.DefaultPageCount))
	assert.Equal(t, sfs.NameLen, uint32(fs.DirectoryNameLength))
	ffs.OnUnmount()
}
