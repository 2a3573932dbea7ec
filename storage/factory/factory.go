/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct  7 15:12:31 2026 mstenber
 * Last modified: Fri Oct 16 10:31:12 2026 mstenber
 * Edit time:     33 min
 *
 */

package factory

import (
	"sort"

	"github.com/fingon/go-nufs/codec"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/badger"
	"github.com/fingon/go-nufs/storage/bolt"
	"github.com/fingon/go-nufs/storage/file"
	"github.com/fingon/go-nufs/storage/inmemory"
	"github.com/pkg/errors"
)

type factoryCallback func() storage.Backend

var backendFactories = map[string]factoryCallback{
	"inmemory": func() storage.Backend {
		return inmemory.NewInMemoryBackend()
	},
	"badger": func() storage.Backend {
		return badger.NewBadgerBackend()
	},
	"bolt": func() storage.Backend {
		return bolt.NewBoltBackend()
	},
	"file": func() storage.Backend {
		return file.NewFileBackend()
	}}

const (
	DefaultBackend    = "file"
	DefaultIterations = 12345
	DefaultSalt       = "nufs"
)

func List() []string {
	keys := make([]string, 0, len(backendFactories))
	for k := range backendFactories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func New(name string, config storage.BackendConfiguration) (storage.Backend, error) {
	mlog.Printf2("storage/factory/factory", "f.New %v %v", name, config.Directory)
	cb, ok := backendFactories[name]
	if !ok {
		return nil, errors.Errorf("unknown backend %q", name)
	}
	be := cb()
	if err := be.Init(config); err != nil {
		return nil, errors.Wrapf(err, "%s backend init", name)
	}
	return be, nil
}

type StorageConfiguration struct {
	storage.BackendConfiguration
	BackendName    string
	Password, Salt string
	Iterations     int

	// Compression is one of codec.ParseCompression names.
	Compression string

	// Verify adds CMAC authentication of pages when not encrypting.
	Verify bool

	Geometry storage.Geometry
}

// PageCodec builds the page codec chain the configuration asks for;
// encryption (or authentication) first, then compression.
func (self StorageConfiguration) PageCodec() (*codec.CodecChain, error) {
	comp, err := codec.ParseCompression(self.Compression)
	if err != nil {
		return nil, err
	}
	iterations := self.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}
	salt := []byte(self.Salt)
	if len(salt) == 0 {
		salt = []byte(DefaultSalt)
	}
	codecs := []codec.Codec{}
	switch {
	case self.Password != "":
		mlog.Printf2("storage/factory/factory", " with encryption")
		codecs = append(codecs, codec.EncryptingCodec{}.Init([]byte(self.Password), salt, iterations))
	case self.Verify:
		mlog.Printf2("storage/factory/factory", " with authentication")
		codecs = append(codecs, codec.AuthenticatingCodec{}.Init(salt, salt, iterations))
	}
	if comp != codec.CompressionPlain {
		mlog.Printf2("storage/factory/factory", " with %v compression", comp)
		codecs = append(codecs, &codec.CompressingCodec{Algorithm: comp})
	}
	return codec.CodecChain{}.Init(codecs...), nil
}

// NewStore creates the backend and opens (or formats) the Store on
// top of it.
func NewStore(config StorageConfiguration) (*storage.Store, error) {
	name := config.BackendName
	if name == "" {
		name = DefaultBackend
	}
	c, err := config.PageCodec()
	if err != nil {
		return nil, err
	}
	be, err := New(name, config.BackendConfiguration)
	if err != nil {
		return nil, err
	}
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: be, Codec: c, Geometry: config.Geometry})
	if err != nil {
		be.Close()
		return nil, err
	}
	return st, nil
}
