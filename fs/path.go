/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 14:30:51 2026 mstenber
 * Last modified: Tue Oct 13 09:40:27 2026 mstenber
 * Edit time:     15 min
 *
 */

package fs

import (
	"strings"

	"github.com/pkg/errors"
)

// resolve walks path from the root. Empty components are skipped, so
// "/a//b/" is the same as "/a/b". A non-directory in the middle of
// the path is reported as not found.
func (self *Fs) resolve(path string) (uint64, error) {
	n := uint64(RootInode)
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		child, err := self.dirLookup(n, name)
		if err != nil {
			if errors.Cause(err) == ErrNotDirectory {
				err = errors.Wrapf(ErrNotFound, "%s: %v", path, err)
			}
			return 0, err
		}
		n = child
	}
	return n, nil
}

// splitPath returns the parent directory and the last component of
// path. Name is empty for the root.
func splitPath(path string) (parent, name string) {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "/", path
	}
	parent = strings.TrimRight(path[:i], "/")
	if parent == "" {
		parent = "/"
	}
	return parent, path[i+1:]
}

// cleanPath returns path in canonical "/a/b" form.
func cleanPath(path string) string {
	parts := []string{}
	for _, name := range strings.Split(path, "/") {
		if name != "" {
			parts = append(parts, name)
		}
	}
	return "/" + strings.Join(parts, "/")
}
