/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Mon Oct  5 09:52:48 2026 mstenber
 * Last modified: Tue Oct 13 16:21:30 2026 mstenber
 * Edit time:     3 min
 *
 */

package util

import (
	"sync"
	"testing"

	"github.com/stvp/assert"
)

func TestMutexLocked(t *testing.T) {
	t.Parallel()
	var l MutexLocked

	assert.False(t, l.IsLocked())
	var wg sync.WaitGroup
	wg.Add(10)
	j := 0
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			defer l.Locked()()
			l.AssertLocked()
			j++
		}()
	}
	wg.Wait()
	assert.Equal(t, j, 10)
	assert.False(t, l.IsLocked())
}
