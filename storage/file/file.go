/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 13:31:20 2026 mstenber
 * Last modified: Fri Oct 16 10:12:05 2026 mstenber
 * Edit time:     38 min
 *
 */

package file

import (
	"path/filepath"

	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ImageName is the file within the backend directory that holds the
// image. Page i lives at byte offset i*PageSize; pages are stored raw,
// so codecs are not supported.
const ImageName = "nufs.img"

type fileBackend struct {
	storage.DirectoryBackendBase
	fd int
}

var _ storage.Backend = &fileBackend{}

func NewFileBackend() storage.Backend {
	return &fileBackend{fd: -1}
}

func (self *fileBackend) Init(config storage.BackendConfiguration) error {
	if err := (&self.DirectoryBackendBase).Init(config); err != nil {
		return err
	}
	path := filepath.Join(self.Dir, ImageName)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0600)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	mlog.Printf2("storage/file/file", "fb.Init %s fd:%d", path, fd)
	self.fd = fd
	return nil
}

func (self *fileBackend) Close() error {
	if self.fd < 0 {
		return nil
	}
	err := unix.Close(self.fd)
	self.fd = -1
	return err
}

func (self *fileBackend) LoadPage(i uint64) ([]byte, error) {
	buf := make([]byte, storage.PageSize)
	off := int64(i) * storage.PageSize
	n := 0
	for n < len(buf) {
		r, err := unix.Pread(self.fd, buf[n:], off+int64(n))
		if err != nil {
			return nil, errors.Wrapf(err, "pread page %d", i)
		}
		if r == 0 {
			break
		}
		n += r
	}
	if n == 0 {
		return nil, nil
	}
	return buf, nil
}

func (self *fileBackend) StorePage(i uint64, data []byte) error {
	if len(data) != storage.PageSize {
		return errors.Errorf("file backend: page %d has %d bytes", i, len(data))
	}
	off := int64(i) * storage.PageSize
	n := 0
	for n < len(data) {
		w, err := unix.Pwrite(self.fd, data[n:], off+int64(n))
		if err != nil {
			return errors.Wrapf(err, "pwrite page %d", i)
		}
		n += w
	}
	mlog.Printf2("storage/file/file", "fb.StorePage %d", i)
	return nil
}

func (self *fileBackend) Sync() error {
	return unix.Fsync(self.fd)
}

func (self *fileBackend) Supports(feature storage.Feature) bool {
	return false
}
