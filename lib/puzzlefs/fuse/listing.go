// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/puzzlefs"
)

// listingStream implements fs.DirStream by paging through
// Engine.ListChildren listPage entries at a time, resuming each page
// at the cursor the previous one stopped on. go-fuse supplies "." and
// ".." itself, so the engine's are skipped.
type listingStream struct {
	engine *puzzlefs.Engine
	id     calendar.ID

	cursor  uint64
	pending []fuse.DirEntry
	drained bool

	// err and errno record a failed page. The error is reported by
	// the next call to Next.
	err   error
	errno syscall.Errno
}

// fill pulls the next page when nothing is pending.
func (s *listingStream) fill() {
	for len(s.pending) == 0 && !s.drained {
		taken := 0
		listing, err := s.engine.ListChildren(s.id, s.cursor, func(entry puzzlefs.DirEntry) bool {
			if taken == listPage {
				return false
			}
			taken++
			s.cursor = entry.Offset
			if entry.Name == "." || entry.Name == ".." {
				return true
			}
			s.pending = append(s.pending, fuse.DirEntry{
				Name: entry.Name,
				Mode: fileType(entry.Kind),
				Ino:  uint64(entry.ID),
			})
			return true
		})
		if err != nil {
			s.err = err
			s.errno = toErrno(err)
			s.drained = true
			return
		}
		if !listing.More {
			s.drained = true
		}
	}
}

func (s *listingStream) HasNext() bool {
	s.fill()
	return len(s.pending) > 0 || s.errno != 0
}

func (s *listingStream) Next() (fuse.DirEntry, syscall.Errno) {
	s.fill()
	if len(s.pending) == 0 {
		if s.errno != 0 {
			errno := s.errno
			s.errno = 0
			return fuse.DirEntry{}, errno
		}
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.pending[0]
	s.pending = s.pending[1:]
	return entry, 0
}

func (s *listingStream) Close() {}
