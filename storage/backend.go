/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 09:14:11 2026 mstenber
 * Last modified: Tue Oct 13 10:22:23 2026 mstenber
 * Edit time:     19 min
 *
 */

package storage

import "time"

type Feature int

const (
	// CodecFeature is set if the backend can store values whose
	// length differs from PageSize (encoded pages).
	CodecFeature Feature = iota
)

type BackendConfiguration struct {
	// Directory is where the backend keeps its files, if any.
	Directory string

	// ValueUpdateInterval describes how often cached statfs
	// values are refreshed in background.
	ValueUpdateInterval time.Duration
}

// Backend is the shadow behind the throne; it actually persists the
// pages. Each page is stored under its index; what a page index maps
// to on disk is left as an exercise to the implementor.
type Backend interface {
	// Init makes the instance actually useful
	Init(config BackendConfiguration) error

	// Close the backend
	Close() error

	// LoadPage returns previously stored data of page i, or nil
	// (and no error) if the page has never been stored.
	LoadPage(i uint64) ([]byte, error)

	// StorePage stores data as page i. The backend must not retain
	// data after returning.
	StorePage(i uint64, data []byte) error

	// Sync makes stored pages durable.
	Sync() error

	// Supports tells if the backend has the given Feature.
	Supports(feature Feature) bool

	// GetBytesAvailable returns number of bytes available.
	GetBytesAvailable() uint64

	// GetBytesUsed returns number of bytes used.
	GetBytesUsed() uint64
}
