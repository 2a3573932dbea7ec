/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 14:20:09 2026 mstenber
 * Last modified: Tue Oct 13 11:28:54 2026 mstenber
 * Edit time:     21 min
 *
 */

package badger

import (
	"github.com/dgraph-io/badger"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/util"
	"github.com/pkg/errors"
)

var pagePrefix = []byte("p")

// badgerBackend provides on-disk storage.
//
// - key prefix 'p' + big-endian page index -> (encoded) page data
type badgerBackend struct {
	storage.DirectoryBackendBase
	db *badger.DB
}

var _ storage.Backend = &badgerBackend{}

func NewBadgerBackend() storage.Backend {
	return &badgerBackend{}
}

func (self *badgerBackend) Init(config storage.BackendConfiguration) error {
	if err := (&self.DirectoryBackendBase).Init(config); err != nil {
		return err
	}
	opts := badger.DefaultOptions
	opts.Dir = self.Dir
	opts.ValueDir = self.Dir
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrap(err, "badger.Open")
	}
	self.db = db
	return nil
}

func (self *badgerBackend) Close() error {
	return self.db.Close()
}

func pageKey(i uint64) []byte {
	return util.ConcatBytes(pagePrefix, util.Uint64Bytes(i))
}

func (self *badgerBackend) LoadPage(i uint64) (v []byte, err error) {
	err = self.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pageKey(i))
		if err == nil {
			v, err = item.ValueCopy(nil)
		}
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return
}

func (self *badgerBackend) StorePage(i uint64, data []byte) error {
	mlog.Printf2("storage/badger/badger", "bad.StorePage %d (%d b)", i, len(data))
	v := append([]byte(nil), data...)
	return self.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pageKey(i), v)
	})
}

// Sync is a no-op; DefaultOptions has SyncWrites set, so each
// committed Update is already durable.
func (self *badgerBackend) Sync() error {
	return nil
}

func (self *badgerBackend) Supports(feature storage.Feature) bool {
	return feature == storage.CodecFeature
}
