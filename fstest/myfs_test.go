/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Wed Oct 14 15:43:45 2026 mstenber
 * Last modified: Mon Oct 19 12:55:37 2026 mstenber
 * Edit time:     31 min
 *
 */

package fstest

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fingon/go-nufs/fs"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/factory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stvp/assert"
)

// ProdFs exercises filesystem, trying to go for as high coverage as
// possible.
//
// NOTE: The filesystem HAS to be empty to start with.
func ProdFs(t *testing.T, f *fs.Fs) {
	root := fs.NewFSUser(f)
	arr, err := root.ReadDir("/")
	assert.Nil(t, err)
	assert.Equal(t, len(arr), 0)

	assert.Nil(t, root.MkdirAll("/a/b/c", 0755))
	fi, err := root.Stat("/a/b")
	assert.Nil(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, fi.Mode().Perm(), os.FileMode(0755))

	big := make([]byte, 100000)
	for i := range big {
		big[i] = byte(i * 7)
	}
	assert.Nil(t, root.WriteFile("/a/b/c/big", big, 0600))
	assert.Nil(t, root.WriteFile("/a/small", []byte("hello"), 0644))
	assert.Nil(t, root.Symlink("small", "/a/link"))

	data, err := root.ReadFile("/a/b/c/big")
	assert.Nil(t, err)
	assert.True(t, bytes.Equal(data, big))

	fi, err = root.Stat("/a/link")
	assert.Nil(t, err)
	assert.Equal(t, fi.Size(), int64(5))
	assert.Equal(t, fi.Mode()&os.ModeSymlink, os.FileMode(0))
	fi, err = root.Lstat("/a/link")
	assert.Nil(t, err)
	assert.True(t, fi.Mode()&os.ModeSymlink != 0)

	names, err := root.ListDir("/a")
	assert.Nil(t, err)
	assert.Equal(t, names, []string{"b", "small", "link"})

	assert.Nil(t, root.Link("/a/small", "/a/b/hard"))
	assert.Nil(t, root.Rename("/a/small", "/small"))
	assert.Nil(t, root.Remove("/a/b/hard"))
	data, err = root.ReadFile("/small")
	assert.Nil(t, err)
	assert.Equal(t, string(data), "hello")

	mt := time.Unix(1234567890, 0)
	assert.Nil(t, root.Chtimes("/small", mt, mt))
	assert.Nil(t, root.Chmod("/small", 0400))
	fi, err = root.Stat("/small")
	assert.Nil(t, err)
	assert.True(t, fi.ModTime().Equal(mt))
	assert.Equal(t, fi.Mode(), os.FileMode(0400))

	// fill a directory to the brim; "big" takes one slot
	for i := 1; i < fs.DirectoryCapacity; i++ {
		assert.Nil(t, root.WriteFile(fmt.Sprintf("/a/b/c/f%d", i), nil, 0644))
	}
	err = root.WriteFile("/a/b/c/overflow", nil, 0644)
	assert.Equal(t, errors.Cause(err), fs.ErrFull)
	arr, err = root.ReadDir("/a/b/c")
	assert.Nil(t, err)
	assert.Equal(t, len(arr), fs.DirectoryCapacity)

	assert.Nil(t, f.Flush())
	sfs := f.StatFs()
	assert.True(t, sfs.Bfree < sfs.Blocks)
	assert.True(t, sfs.Ffree < sfs.Files)
}

func TestFs(t *testing.T) {
	t.Parallel()
	for _, name := range factory.List() {
		for _, compression := range []string{"none", "zstd"} {
			name := name
			compression := compression
			t.Run(fmt.Sprintf("%s-%s", name, compression), func(t *testing.T) {
				t.Parallel()
				config := factory.StorageConfiguration{
					BackendConfiguration: storage.BackendConfiguration{Directory: t.TempDir()},
					BackendName:          name,
					Compression:          compression,
				}
				if name != "file" {
					config.Password = "sekrit"
				} else if compression != "none" {
					t.Skip("file backend stores raw pages")
				}
				st, err := factory.NewStore(config)
				require.NoError(t, err)
				f, err := fs.NewFs(st, fs.Configuration{})
				require.NoError(t, err)
				defer f.Close()
				ProdFs(t, f)
			})
		}
	}
}
