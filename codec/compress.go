/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Tue Oct  6 10:21:37 2026 mstenber
 * Last modified: Wed Oct 14 12:58:02 2026 mstenber
 * Edit time:     54 min
 *
 */

package codec

import (
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

type Compression uint8

const (
	CompressionPlain Compression = iota
	CompressionSnappy
	CompressionLZ4
	CompressionZstd
)

var compressionNames = map[Compression]string{
	CompressionPlain:  "none",
	CompressionSnappy: "snappy",
	CompressionLZ4:    "lz4",
	CompressionZstd:   "zstd",
}

func (self Compression) String() string {
	if s, ok := compressionNames[self]; ok {
		return s
	}
	return fmt.Sprintf("Compression(%d)", uint8(self))
}

// ParseCompression maps name (as given on the command line) to
// Compression; empty string is plain.
func ParseCompression(name string) (Compression, error) {
	if name == "" {
		return CompressionPlain, nil
	}
	for k, v := range compressionNames {
		if v == name {
			return k, nil
		}
	}
	return CompressionPlain, errors.Errorf("unknown compression %q", name)
}

// CompressingCodec
//
// On-the-fly compressing Codec. If the result does not improve, the
// envelope is marked plain and the data passed as-is.
type CompressingCodec struct {
	Algorithm Compression

	zstdOnce sync.Once
	zenc     *zstd.Encoder
	zdec     *zstd.Decoder
	zerr     error
}

type compressedData struct {
	Algorithm Compression `codec:"a"`
	Length    int         `codec:"l"`
	Data      []byte      `codec:"d"`
}

func (self *CompressingCodec) zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	self.zstdOnce.Do(func() {
		self.zenc, self.zerr = zstd.NewWriter(nil)
		if self.zerr != nil {
			return
		}
		self.zdec, self.zerr = zstd.NewReader(nil)
	})
	return self.zenc, self.zdec, self.zerr
}

func (self *CompressingCodec) compress(data []byte) ([]byte, error) {
	switch self.Algorithm {
	case CompressionSnappy:
		return snappy.Encode(nil, data), nil
	case CompressionLZ4:
		var c lz4.Compressor
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// incompressible
			return data, nil
		}
		return buf[:n], nil
	case CompressionZstd:
		enc, _, err := self.zstdCoders()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, nil), nil
	}
	return data, nil
}

func (self *CompressingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	cd := compressedData{Algorithm: CompressionPlain, Length: len(data), Data: data}
	if self.Algorithm != CompressionPlain {
		var rd []byte
		rd, err = self.compress(data)
		if err != nil {
			return
		}
		if len(rd) < len(data) {
			cd.Algorithm = self.Algorithm
			cd.Data = rd
		}
	}
	return encodeEnvelope(&cd)
}

func (self *CompressingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var cd compressedData
	if err = decodeEnvelope(data, &cd); err != nil {
		return
	}
	switch cd.Algorithm {
	case CompressionPlain:
		ret = cd.Data
	case CompressionSnappy:
		ret, err = snappy.Decode(nil, cd.Data)
	case CompressionLZ4:
		ret = make([]byte, cd.Length)
		var n int
		n, err = lz4.UncompressBlock(cd.Data, ret)
		if err == nil {
			ret = ret[:n]
		}
	case CompressionZstd:
		var dec *zstd.Decoder
		_, dec, err = self.zstdCoders()
		if err == nil {
			ret, err = dec.DecodeAll(cd.Data, nil)
		}
	default:
		err = errors.Errorf("unsupported compression %v", cd.Algorithm)
	}
	if err == nil && len(ret) != cd.Length {
		err = errors.Errorf("decompressed length mismatch: %d != %d", len(ret), cd.Length)
	}
	return
}
