// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package puzzlefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Handle is an opaque token for one open file.
type Handle uint64

// HandleTable owns the files behind open handles. Each handle is
// inserted on open and removed by exactly one Release. Reads on one
// handle are serialized; distinct handles proceed in parallel.
type HandleTable struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]*handleEntry
}

type handleEntry struct {
	mu sync.Mutex
	// file is nil once released.
	file *os.File
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{entries: make(map[Handle]*handleEntry)}
}

// Insert takes ownership of file and returns its handle. Handles are
// never reused within a table.
func (t *HandleTable) Insert(file *os.File) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.entries[t.next] = &handleEntry{file: file}
	return t.next
}

func (t *HandleTable) lookup(handle Handle) (*handleEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[handle]
	return entry, ok
}

// Read returns up to maxLength bytes at offset. The result is clipped
// to the file's length; an offset at or past the end yields an empty
// result, not an error.
func (t *HandleTable) Read(handle Handle, offset int64, maxLength int) ([]byte, error) {
	if offset < 0 {
		return nil, fmt.Errorf("read handle %d at %d: %w", handle, offset, ErrInvalidArgument)
	}
	entry, ok := t.lookup(handle)
	if !ok {
		return nil, fmt.Errorf("read handle %d: %w", handle, ErrUnknownHandle)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.file == nil {
		return nil, fmt.Errorf("read handle %d: %w", handle, ErrUnknownHandle)
	}
	if maxLength <= 0 {
		return []byte{}, nil
	}

	buffer := make([]byte, maxLength)
	n, err := entry.file.ReadAt(buffer, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read handle %d at %d: %w: %w", handle, offset, ErrIO, err)
	}
	return buffer[:n], nil
}

// Release closes the file behind handle and forgets it. Releasing an
// unknown or already released handle returns ErrUnknownHandle.
func (t *HandleTable) Release(handle Handle) error {
	t.mu.Lock()
	entry, ok := t.entries[handle]
	delete(t.entries, handle)
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("release handle %d: %w", handle, ErrUnknownHandle)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	file := entry.file
	entry.file = nil
	if err := file.Close(); err != nil {
		return fmt.Errorf("release handle %d: %w: %w", handle, ErrIO, err)
	}
	return nil
}

// Len returns the number of live handles.
func (t *HandleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
