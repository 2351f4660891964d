// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall-clock source.
//
// Everything in aocfs that depends on "now" (which puzzles are unlocked,
// which years exist, what the latest symlinks point at) reads time
// through a Clock instead of calling time.Now directly. Production code
// passes Real(); tests pass Fake() and move time with Set or Advance,
// so calendar rollovers can be exercised without waiting for them.
//
//	c := clock.Fake(time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC))
//	policy, _ := calendar.NewPolicy(calendar.DefaultRules(), c)
//	c.Advance(24 * time.Hour) // day 11 unlocks
package clock
