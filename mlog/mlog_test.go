/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 10:31:55 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     11 min
 *
 */

package mlog

import (
	"bytes"
	"log"
	"testing"

	"github.com/stvp/assert"
)

func TestMlog(t *testing.T) {
	add := func(pattern string, outputted bool) {
		t.Run(pattern, func(t *testing.T) {
			var b bytes.Buffer
			defer SetLogger(log.New(&b, "", 0))()
			defer SetPattern(pattern)()
			Printf2("fs/ops", "foo %s", "bar")
			assert.Equal(t, b.Len() > 0, outputted)
			if outputted {
				assert.Equal(t, b.String(), "foo bar\n")
			}
		})
	}
	add("", false)
	add("zzzglorb", false)
	add("fs/", true)
	add("^fs/ops$", true)
}

func TestMlogFileTag(t *testing.T) {
	var b bytes.Buffer
	Reset()
	defer SetLogger(log.New(&b, "", 0))()
	defer SetPattern("mlog_test")()
	Printf("x=%d", 42)
	assert.Equal(t, b.String(), "x=42\n")
}

func TestMlogRecursion(t *testing.T) {
	var b bytes.Buffer
	Reset()
	defer SetLogger(log.New(&b, "", 0))()
	defer SetPattern(".")()
	Printf2("t", "d0")
	func() {
		Printf2("t", "d1")
		func() {
			Printf2("t", "d2")
		}()
		Printf2("t", "D1")
	}()
	Printf2("t", "D0")
	assert.Equal(t, b.String(), "d0\n.d1\n..d2\n.D1\nD0\n")
}

func BenchmarkMlogDisabled(b *testing.B) {
	defer SetPattern("")()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Printf2("x", "y %d", 42)
	}
}

func BenchmarkMlogNotMatching(b *testing.B) {
	defer SetPattern("zzglorb")()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Printf2("x", "y")
	}
}
