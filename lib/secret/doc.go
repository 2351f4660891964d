// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the archive session token outside the Go heap.
//
// [Buffer] allocates memory via mmap(MAP_ANONYMOUS), locks it into
// physical RAM via mlock (preventing swap), and marks it excluded from
// core dumps via madvise(MADV_DONTDUMP). On Close, the memory is zeroed,
// unlocked, and unmapped. The session cookie grants full access to the
// account it belongs to, so it is kept here for the life of the mount
// and copied to a heap string only at the HTTP header boundary.
//
// Sources:
//
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFromPath] -- reads a token file, trimming whitespace
//   - [ReadFromTerminal] -- prompts with echo disabled
//
// Depends on golang.org/x/sys/unix and golang.org/x/term.
package secret
