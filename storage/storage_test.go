/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 09:05:41 2026 mstenber
 * Last modified: Fri Oct 16 11:20:03 2026 mstenber
 * Edit time:     58 min
 *
 */

package storage_test

import (
	"bytes"
	"testing"

	"github.com/fingon/go-nufs/codec"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/badger"
	"github.com/fingon/go-nufs/storage/bolt"
	"github.com/fingon/go-nufs/storage/file"
	"github.com/fingon/go-nufs/storage/inmemory"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stvp/assert"
)

type backendFactory func(t *testing.T) storage.Backend

var backends = map[string]backendFactory{
	"inmemory": func(t *testing.T) storage.Backend {
		return inmemory.NewInMemoryBackend()
	},
	"file": func(t *testing.T) storage.Backend {
		return initBackend(t, file.NewFileBackend())
	},
	"bolt": func(t *testing.T) storage.Backend {
		return initBackend(t, bolt.NewBoltBackend())
	},
	"badger": func(t *testing.T) storage.Backend {
		return initBackend(t, badger.NewBadgerBackend())
	},
}

func initBackend(t *testing.T, be storage.Backend) storage.Backend {
	require.NoError(t, be.Init(storage.BackendConfiguration{Directory: t.TempDir()}))
	return be
}

func page(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, storage.PageSize)
}

// ProdBackend runs the behaviour every Backend must provide.
func ProdBackend(t *testing.T, factory backendFactory) {
	be := factory(t)
	defer be.Close()

	data, err := be.LoadPage(3)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, be.StorePage(3, page(3)))
	require.NoError(t, be.StorePage(0, page(42)))
	p := page(7)
	require.NoError(t, be.StorePage(1, p))
	// backend must not retain the slice
	p[0] = 8
	require.NoError(t, be.Sync())

	data, err = be.LoadPage(3)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, page(3)))
	data, err = be.LoadPage(1)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, page(7)))

	require.NoError(t, be.StorePage(3, page(4)))
	data, err = be.LoadPage(3)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, page(4)))

	if be.Supports(storage.CodecFeature) {
		require.NoError(t, be.StorePage(5, []byte("short")))
		data, err = be.LoadPage(5)
		require.NoError(t, err)
		assert.Equal(t, string(data), "short")
	} else {
		assert.NotNil(t, be.StorePage(5, []byte("short")))
	}
	be.GetBytesAvailable()
	be.GetBytesUsed()
}

func TestBackends(t *testing.T) {
	t.Parallel()
	for name, factory := range backends {
		factory := factory
		t.Run(name, func(t *testing.T) {
			ProdBackend(t, factory)
		})
	}
}

func newStore(t *testing.T, be storage.Backend, g storage.Geometry) *storage.Store {
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: be, Geometry: g})
	require.NoError(t, err)
	return st
}

func TestStoreFormat(t *testing.T) {
	t.Parallel()
	be := inmemory.NewInMemoryBackend()
	st := newStore(t, be, storage.Geometry{})
	assert.True(t, st.Formatted())
	g := st.Geometry()
	assert.Equal(t, g, storage.DefaultGeometry)
	assert.Equal(t, g.InodeTablePages(), uint64(8))
	assert.Equal(t, g.FirstDataPage(), uint64(9))
	pg, off := g.InodeLocation(33)
	assert.Equal(t, pg, uint64(2))
	assert.Equal(t, off, 128)

	stats := st.Stats()
	expected := storage.StoreStats{
		TotalPages:  256,
		FreePages:   256 - 9,
		TotalInodes: 251,
		FreeInodes:  251,
	}
	stats.Reads, stats.Writes = 0, 0
	if diff := deep.Equal(stats, expected); diff != nil {
		t.Error(diff)
	}

	// first allocation is the first pool page
	i, err := st.AllocPage()
	require.NoError(t, err)
	assert.Equal(t, i, uint64(9))
	n, err := st.Flush()
	require.NoError(t, err)
	assert.Equal(t, n, 10)
	n, err = st.Flush()
	require.NoError(t, err)
	assert.Equal(t, n, 0)
}

func TestStoreAllocRelease(t *testing.T) {
	t.Parallel()
	st := newStore(t, inmemory.NewInMemoryBackend(), storage.Geometry{PageCount: 12, InodeCount: 32})
	g := st.Geometry()
	assert.Equal(t, g.FirstDataPage(), uint64(2))
	got := []uint64{}
	for {
		i, err := st.AllocPage()
		if err != nil {
			assert.Equal(t, errors.Cause(err), storage.ErrNoSpace)
			break
		}
		got = append(got, i)
	}
	assert.Equal(t, len(got), 10)
	assert.Equal(t, st.Stats().FreePages, uint64(0))

	p, err := st.DirtyPage(5)
	require.NoError(t, err)
	p[17] = 1
	require.NoError(t, st.ReleasePage(5))
	assert.NotNil(t, st.ReleasePage(5))
	assert.NotNil(t, st.ReleasePage(1))
	assert.Equal(t, errors.Cause(st.ReleasePage(12)), storage.ErrOutOfRange)

	i, err := st.AllocPage()
	require.NoError(t, err)
	assert.Equal(t, i, uint64(5))
	p, err = st.Page(5)
	require.NoError(t, err)
	assert.Equal(t, p[17], byte(0))

	_, err = st.Page(12)
	assert.Equal(t, errors.Cause(err), storage.ErrOutOfRange)
}

func TestStoreReopen(t *testing.T) {
	t.Parallel()
	be := inmemory.NewInMemoryBackend()
	st := newStore(t, be, storage.Geometry{PageCount: 64, InodeCount: 40})
	bm := st.InodeBitmap()
	bm.Put(0, true)
	bm.Put(39, true)
	i, err := st.AllocPage()
	require.NoError(t, err)
	p, err := st.DirtyPage(i)
	require.NoError(t, err)
	copy(p, "hello")
	_, err = st.Flush()
	require.NoError(t, err)

	// geometry in the superblock wins
	st2 := newStore(t, be, storage.Geometry{PageCount: 128})
	assert.False(t, st2.Formatted())
	assert.Equal(t, st2.Geometry(), st.Geometry())
	assert.Equal(t, st2.UUID(), st.UUID())
	bm = st2.InodeBitmap()
	assert.True(t, bm.Get(0))
	assert.False(t, bm.Get(1))
	assert.True(t, bm.Get(39))
	assert.Equal(t, st2.Stats().FreeInodes, uint64(38))
	p, err = st2.Page(i)
	require.NoError(t, err)
	assert.Equal(t, string(p[:5]), "hello")
	j, err := st2.AllocPage()
	require.NoError(t, err)
	assert.NotEqual(t, i, j)
}

func TestStoreCorrupt(t *testing.T) {
	t.Parallel()
	be := inmemory.NewInMemoryBackend()
	require.NoError(t, be.StorePage(0, page(1)))
	_, err := storage.NewStore(storage.StoreConfiguration{Backend: be})
	assert.Equal(t, errors.Cause(err), storage.ErrCorrupt)
}

func TestGeometryValidate(t *testing.T) {
	t.Parallel()
	assert.Nil(t, storage.DefaultGeometry.Validate())
	assert.NotNil(t, storage.Geometry{PageCount: 9, InodeCount: 251}.Validate())
	assert.NotNil(t, storage.Geometry{PageCount: 40000, InodeCount: 32}.Validate())
	assert.NotNil(t, storage.Geometry{PageCount: 100}.Validate())
	_, err := storage.NewStore(storage.StoreConfiguration{
		Backend:  inmemory.NewInMemoryBackend(),
		Geometry: storage.Geometry{PageCount: 5, InodeCount: 251}})
	assert.NotNil(t, err)
}

func TestStoreCodec(t *testing.T) {
	t.Parallel()
	be := inmemory.NewInMemoryBackend()
	c := codec.CodecChain{}.Init(
		codec.EncryptingCodec{}.Init([]byte("pw"), []byte("salt"), 16),
		&codec.CompressingCodec{Algorithm: codec.CompressionSnappy})
	st, err := storage.NewStore(storage.StoreConfiguration{Backend: be, Codec: c})
	require.NoError(t, err)
	_, err = st.Flush()
	require.NoError(t, err)

	raw, err := be.LoadPage(0)
	require.NoError(t, err)
	assert.True(t, len(raw) < storage.PageSize)

	// page moved to another index does not decode
	raw1, err := be.LoadPage(1)
	require.NoError(t, err)
	require.NoError(t, be.StorePage(0, raw1))
	_, err = storage.NewStore(storage.StoreConfiguration{Backend: be, Codec: c})
	assert.Equal(t, errors.Cause(err), codec.ErrAuthentication)

	// codec on a raw backend is refused
	fb := backends["file"](t)
	defer fb.Close()
	_, err = storage.NewStore(storage.StoreConfiguration{Backend: fb, Codec: c})
	assert.NotNil(t, err)
}
