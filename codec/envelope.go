/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Tue Oct  6 10:02:51 2026 mstenber
 * Last modified: Tue Oct  6 10:15:09 2026 mstenber
 * Edit time:     6 min
 *
 */

package codec

import (
	"github.com/pkg/errors"
	ugorji "github.com/ugorji/go/codec"
)

var cborHandle ugorji.CborHandle

func encodeEnvelope(v interface{}) (ret []byte, err error) {
	enc := ugorji.NewEncoderBytes(&ret, &cborHandle)
	err = enc.Encode(v)
	return
}

func decodeEnvelope(data []byte, v interface{}) error {
	dec := ugorji.NewDecoderBytes(data, &cborHandle)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "codec envelope")
	}
	return nil
}
