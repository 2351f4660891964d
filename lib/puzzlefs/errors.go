// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package puzzlefs

import "errors"

// Sentinel errors returned (wrapped) by Engine and HandleTable. Match
// them with errors.Is.
var (
	// ErrNotFound: the name or id does not exist in the tree at the
	// current unlock boundary.
	ErrNotFound = errors.New("no such entry")

	// ErrNotADirectory: a directory operation on a file or symlink.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory: a file operation on a directory.
	ErrIsADirectory = errors.New("is a directory")

	// ErrInvalidArgument: the operation does not apply to the target,
	// such as readlink on a file or open on a symlink.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIO: local storage or fetch failure.
	ErrIO = errors.New("input/output error")

	// ErrNoData: the requested attribute is not available.
	ErrNoData = errors.New("no data available")

	// ErrUnknownHandle: the handle was never issued or is already
	// released.
	ErrUnknownHandle = errors.New("unknown handle")
)
