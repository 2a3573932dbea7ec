/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 14:30:18 2026 mstenber
 * Last modified: Wed Oct  7 15:02:44 2026 mstenber
 * Edit time:     27 min
 *
 */

package codec

import (
	"crypto/subtle"
	"log"

	"github.com/fingon/go-nufs/util"
	"github.com/jacobsa/crypto/cmac"
)

// AuthenticatingCodec
//
// AES-CMAC tag over additionalData and data; provides integrity
// (e.g. pages not swapped around, or bitrot) without encryption.
type AuthenticatingCodec struct {
	key []byte
}

type authenticatedData struct {
	Tag  []byte `codec:"t"`
	Data []byte `codec:"d"`
}

func (self AuthenticatingCodec) Init(password, salt []byte, iter int) *AuthenticatingCodec {
	self.key = deriveKey(password, salt, iter)
	return &self
}

func (self *AuthenticatingCodec) tag(data, additionalData []byte) []byte {
	h, err := cmac.New(self.key)
	if err != nil {
		log.Panic(err)
	}
	h.Write(util.Uint64Bytes(uint64(len(additionalData))))
	h.Write(additionalData)
	h.Write(data)
	return h.Sum(nil)
}

func (self *AuthenticatingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	return encodeEnvelope(&authenticatedData{Tag: self.tag(data, additionalData), Data: data})
}

func (self *AuthenticatingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var ad authenticatedData
	if err = decodeEnvelope(data, &ad); err != nil {
		return
	}
	if subtle.ConstantTimeCompare(ad.Tag, self.tag(ad.Data, additionalData)) != 1 {
		err = ErrAuthentication
		return
	}
	ret = ad.Data
	return
}
