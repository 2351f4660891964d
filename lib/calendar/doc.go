// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package calendar maps the puzzle archive's (year, day) calendar onto
// the flat node-id space of the filesystem, and decides which part of
// that calendar is unlocked at a given instant.
//
// A [Coordinate] addresses one entity in the tree:
//
//   - Day 0 is the year directory.
//   - Days 1..25 are the daily input files.
//   - Day 26 is the year-scoped "latest" symlink.
//
// [Coordinate.ID] encodes a coordinate as Year*100+Day. Two ids are
// reserved: [RootID] (the FUSE root node) and [LatestID] (the root-level
// "latest" symlink, encoded as year 2000 day 0). Both decode to years
// below any permitted first year, so they never collide with a real
// coordinate. [NewPolicy] refuses first years that would break this.
//
// A [Policy] evaluates the release rule (one puzzle per day during a
// fixed release month, in a fixed UTC offset shared by all clients)
// against an injected [clock.Clock]. The result is recomputed on every
// call so newly released puzzles appear without a remount.
//
// Directory entry names follow a small explicit grammar (see
// [ParseDayName]) rather than prefix and suffix trimming, so inputs like
// "day007" or "dayday5" do not resolve.
package calendar
