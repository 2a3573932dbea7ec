/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 09:45:13 2026 mstenber
 * Last modified: Tue Oct 13 10:31:50 2026 mstenber
 * Edit time:     12 min
 *
 */

package storage

import (
	"github.com/fingon/go-nufs/codec"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/util"
	"github.com/pkg/errors"
)

// codecBackend encodes pages on the way to the wrapped backend and
// decodes them on the way back. The page index is the additional
// data, so a page stored under one index does not decode under
// another.
type codecBackend struct {
	proxyBackend
	codec codec.Codec
}

func newCodecBackend(be Backend, c codec.Codec) *codecBackend {
	return &codecBackend{proxyBackend: proxyBackend{backend: be}, codec: c}
}

func (self *codecBackend) LoadPage(i uint64) ([]byte, error) {
	data, err := self.backend.LoadPage(i)
	if err != nil || data == nil {
		return data, err
	}
	b, err := self.codec.DecodeBytes(data, util.Uint64Bytes(i))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding page %d", i)
	}
	return b, nil
}

func (self *codecBackend) StorePage(i uint64, data []byte) error {
	b, err := self.codec.EncodeBytes(data, util.Uint64Bytes(i))
	if err != nil {
		return errors.Wrapf(err, "encoding page %d", i)
	}
	mlog.Printf2("storage/codecbackend", "cb.StorePage %d: %d -> %d b", i, len(data), len(b))
	return self.backend.StorePage(i, b)
}
