// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// aocfs mounts the Advent of Code puzzle archive as a read-only
// filesystem:
//
//	<mount>/latest            -> newest unlocked year
//	<mount>/<year>/dayNN.txt  puzzle input, fetched on first open
//	<mount>/<year>/latest     -> newest unlocked day of the year
//
// Inputs are fetched with the configured session cookie and cached on
// local disk forever. Days appear at midnight UTC-5 through December
// without a remount.
//
// Usage:
//
//	aocfs [flags] <mountpoint>
//
// The filesystem stays mounted until aocfs receives SIGINT or SIGTERM,
// or the mount is removed with fusermount -u.
package main
