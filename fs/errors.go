/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct  8 10:10:37 2026 mstenber
 * Last modified: Mon Oct 19 15:24:10 2026 mstenber
 * Edit time:     9 min
 *
 */

package fs

import (
	"github.com/fingon/go-nufs/storage"
	"github.com/pkg/errors"
)

// The errors returned by Fs wrap one of these; use errors.Cause to
// classify.
var (
	ErrNotFound          = errors.New("not found")
	ErrFull              = errors.New("directory full")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrInvalid           = errors.New("invalid operation")
	ErrExists            = errors.New("already exists")
	ErrNotDirectory      = errors.New("not a directory")
	ErrNameTooLong       = errors.New("name too long")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNotEmpty          = errors.New("directory not empty")
)

// storageError translates errors of the page store to ours.
func storageError(err error) error {
	if err != nil && errors.Cause(err) == storage.ErrNoSpace {
		return errors.Wrap(ErrResourceExhausted, err.Error())
	}
	return err
}
