// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package puzzlefs is the protocol-neutral core of the aocfs
// filesystem: it answers lookup, getattr, readlink, readdir, and open
// against the calendar tree without knowing anything about FUSE.
//
// The tree is addressed by [calendar.ID]:
//
//	/                   calendar.RootID
//	/latest             calendar.LatestID, symlink to the newest year
//	/<year>             Coordinate{year, 0}
//	/<year>/dayNN.txt   Coordinate{year, NN}, 1 <= NN <= 25
//	/<year>/latest      Coordinate{year, 26}, symlink to the newest day
//
// The [Engine] is stateless between calls apart from reading the time
// through its [calendar.Policy]; every answer reflects the unlock
// boundary at the moment of the call. Live open files are not the
// engine's concern: [Engine.Open] returns a file and the caller parks
// it in a [HandleTable], which owns it until release.
//
// Errors are the sentinels in errors.go, wrapped with context. The FUSE
// bridge in lib/puzzlefs/fuse maps them to errno values.
package puzzlefs
