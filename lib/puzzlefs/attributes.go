// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package puzzlefs

import (
	"time"

	"github.com/bureau-foundation/aocfs/lib/calendar"
)

// Kind is the file type of a tree entry.
type Kind uint8

const (
	KindDirectory Kind = iota + 1
	KindRegular
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindRegular:
		return "regular"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

const (
	// DefaultAttrValidity is how long callers may cache an answer.
	// Short, because the unlock boundary moves at midnight.
	DefaultAttrValidity = time.Second

	// PlaceholderSize is reported for inputs not yet fetched. The
	// real size is unknown until the first open.
	PlaceholderSize = 4096

	// BlockSize is the preferred I/O size reported for every entry.
	BlockSize = 4096

	DirectoryPerm = 0o555
	FilePerm      = 0o444
	SymlinkPerm   = 0o777
)

// Attributes is the metadata of one tree entry.
type Attributes struct {
	ID      calendar.ID
	Kind    Kind
	Perm    uint32
	Nlink   uint32
	Size    uint64
	Blocks  uint64
	Blksize uint32
	Mtime   time.Time
}

// DirEntry is one entry of a directory listing. Offset is the cursor
// that resumes the listing after this entry.
type DirEntry struct {
	ID     calendar.ID
	Offset uint64
	Kind   Kind
	Name   string
}

// Listing reports how a ListChildren call ended. When More is true the
// sink refused an entry and the listing continues at Resume. When More
// is false the listing is drained and Resume is the total entry count.
type Listing struct {
	More   bool
	Resume uint64
}

func blocks(size uint64) uint64 {
	return (size + 511) / 512
}
