/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 09:40:05 2026 mstenber
 * Last modified: Wed Oct  7 09:44:39 2026 mstenber
 * Edit time:     3 min
 *
 */

package storage

// proxyBackend passes everything to the wrapped Backend; embed it and
// override what needs changing.
type proxyBackend struct {
	backend Backend
}

var _ Backend = &proxyBackend{}

func (self *proxyBackend) Init(config BackendConfiguration) error {
	return self.backend.Init(config)
}

func (self *proxyBackend) Close() error {
	return self.backend.Close()
}

func (self *proxyBackend) LoadPage(i uint64) ([]byte, error) {
	return self.backend.LoadPage(i)
}

func (self *proxyBackend) StorePage(i uint64, data []byte) error {
	return self.backend.StorePage(i, data)
}

func (self *proxyBackend) Sync() error {
	return self.backend.Sync()
}

func (self *proxyBackend) Supports(feature Feature) bool {
	return self.backend.Supports(feature)
}

func (self *proxyBackend) GetBytesAvailable() uint64 {
	return self.backend.GetBytesAvailable()
}

func (self *proxyBackend) GetBytesUsed() uint64 {
	return self.backend.GetBytesUsed()
}
