/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 09:44:03 2026 mstenber
 * Last modified: Thu Oct 15 11:02:37 2026 mstenber
 * Edit time:     9 min
 *
 */

package util

import "encoding/binary"

func ConcatBytes(bytes ...[]byte) []byte {
	nl := 0
	for _, b := range bytes {
		nl += len(b)
	}
	r := make([]byte, 0, nl)
	for _, b := range bytes {
		r = append(r, b...)
	}
	return r
}

func Uint64Bytes(n uint64) []byte {
	nb := make([]byte, 8)
	binary.BigEndian.PutUint64(nb, n)
	return nb
}

func U64Min(i uint64, values ...uint64) uint64 {
	for _, v := range values {
		if v < i {
			i = v
		}
	}
	return i
}

func U64Max(i uint64, values ...uint64) uint64 {
	for _, v := range values {
		if v > i {
			i = v
		}
	}
	return i
}

// CeilDiv returns a/b rounded up.
func CeilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
