// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import "fmt"

const (
	// DaysPerYear is the number of puzzles released each year.
	DaysPerYear = 25

	// LatestDay is the day component of a year-scoped "latest" symlink.
	LatestDay = DaysPerYear + 1

	// idStride separates years in the id space. Day components use
	// the two low decimal digits.
	idStride = 100

	// sentinelYear is the year component of LatestID. It must stay
	// below every permitted first year.
	sentinelYear = 2000
)

// ID is the flat node identifier handed to the kernel.
type ID uint64

const (
	// RootID is the FUSE root node id.
	RootID ID = 1

	// LatestID names the root-level "latest" symlink.
	LatestID ID = sentinelYear * idStride
)

// Coordinate addresses a year directory (Day 0), a daily input
// (Day 1..25), or a year's "latest" symlink (Day 26).
type Coordinate struct {
	Year int
	Day  int
}

// YearDirectory returns the coordinate of year's directory.
func YearDirectory(year int) Coordinate {
	return Coordinate{Year: year}
}

// ID encodes the coordinate. The encoding is total; whether the
// coordinate is meaningful is for the caller to decide.
func (c Coordinate) ID() ID {
	return ID(c.Year)*idStride + ID(c.Day)
}

// IsYearDirectory reports whether c names a year directory.
func (c Coordinate) IsYearDirectory() bool { return c.Day == 0 }

// IsInput reports whether c names a daily input file.
func (c Coordinate) IsInput() bool { return c.Day >= 1 && c.Day <= DaysPerYear }

// IsLatestLink reports whether c names a year's "latest" symlink.
func (c Coordinate) IsLatestLink() bool { return c.Day == LatestDay }

func (c Coordinate) String() string {
	switch {
	case c.IsYearDirectory():
		return fmt.Sprintf("%d", c.Year)
	case c.IsLatestLink():
		return fmt.Sprintf("%d/%s", c.Year, LatestName)
	default:
		return fmt.Sprintf("%d/%s", c.Year, DayFileName(c.Day))
	}
}

// Coordinate decodes the id. Decoding is syntactic: RootID and LatestID
// decode to coordinates below any first year.
func (id ID) Coordinate() Coordinate {
	return Coordinate{
		Year: int(id / idStride),
		Day:  int(id % idStride),
	}
}

// IsRoot reports whether id is the filesystem root.
func (id ID) IsRoot() bool { return id == RootID }

// IsLatest reports whether id is the root-level "latest" symlink.
func (id ID) IsLatest() bool { return id == LatestID }
