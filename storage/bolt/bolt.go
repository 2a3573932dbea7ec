/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 14:02:44 2026 mstenber
 * Last modified: Tue Oct 13 11:15:36 2026 mstenber
 * Edit time:     17 min
 *
 */

package bolt

import (
	"path/filepath"

	bbolt "github.com/coreos/bbolt"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/util"
	"github.com/pkg/errors"
)

var pagesKey = []byte("pages")

// boltBackend provides on-disk storage in a single bbolt database;
// bucket 'pages' maps big-endian page index to (encoded) page data.
type boltBackend struct {
	storage.DirectoryBackendBase

	db *bbolt.DB
}

var _ storage.Backend = &boltBackend{}

func NewBoltBackend() storage.Backend {
	return &boltBackend{}
}

func (self *boltBackend) Init(config storage.BackendConfiguration) error {
	if err := (&self.DirectoryBackendBase).Init(config); err != nil {
		return err
	}
	db, err := bbolt.Open(filepath.Join(self.Dir, "bbolt.db"), 0600, nil)
	if err != nil {
		return errors.Wrap(err, "bbolt.Open")
	}
	self.db = db
	return db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(pagesKey)
		return err
	})
}

func (self *boltBackend) Close() error {
	return self.db.Close()
}

func (self *boltBackend) LoadPage(i uint64) (v []byte, err error) {
	err = self.db.View(func(tx *bbolt.Tx) error {
		// bbolt values are valid only within the transaction
		if b := tx.Bucket(pagesKey).Get(util.Uint64Bytes(i)); b != nil {
			v = append([]byte(nil), b...)
		}
		return nil
	})
	return
}

func (self *boltBackend) StorePage(i uint64, data []byte) error {
	mlog.Printf2("storage/bolt/bolt", "bbolt.StorePage %d (%d b)", i, len(data))
	return self.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(pagesKey).Put(util.Uint64Bytes(i), data)
	})
}

func (self *boltBackend) Sync() error {
	return self.db.Sync()
}

func (self *boltBackend) Supports(feature storage.Feature) bool {
	return feature == storage.CodecFeature
}
