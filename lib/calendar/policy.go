// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/aocfs/lib/clock"
)

// Default release rule of the archive.
const (
	DefaultFirstYear    = 2015
	DefaultReleaseMonth = time.December
	DefaultOffset       = "-05:00"
)

// maxOffset bounds the reference offset to what real time zones use.
const maxOffset = 14 * time.Hour

// Rules describes when puzzles unlock. Rules are fixed for the life of
// a mount.
type Rules struct {
	// FirstYear is the first year of the archive. Must be later
	// than 2000, which is reserved for LatestID.
	FirstYear int

	// ReleaseMonth is the month during which one puzzle unlocks
	// per day, days 1 through 25.
	ReleaseMonth time.Month

	// Offset is the fixed UTC offset, as "-05:00", "+01:00" or "Z",
	// in which release days are counted. Every client of the
	// archive shares it regardless of their local zone.
	Offset string
}

// DefaultRules returns the archive's release rule: first year 2015,
// one puzzle per day in December, midnight in UTC-5.
func DefaultRules() Rules {
	return Rules{
		FirstYear:    DefaultFirstYear,
		ReleaseMonth: DefaultReleaseMonth,
		Offset:       DefaultOffset,
	}
}

// ParseOffset parses a fixed UTC offset ("Z", "+hh:mm", "-hh:mm") into
// a time.Location.
func ParseOffset(offset string) (*time.Location, error) {
	parsed, err := time.Parse("Z07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("parsing UTC offset %q: %w", offset, err)
	}
	_, seconds := parsed.Zone()
	duration := time.Duration(seconds) * time.Second
	if duration > maxOffset || duration < -maxOffset {
		return nil, fmt.Errorf("UTC offset %q is outside ±14:00", offset)
	}
	return time.FixedZone("UTC"+offset, seconds), nil
}

// Validate checks the rules without building a Policy.
func (r Rules) Validate() error {
	if r.FirstYear <= sentinelYear {
		return fmt.Errorf("first year %d must be later than %d", r.FirstYear, sentinelYear)
	}
	if r.FirstYear > 9999 {
		return fmt.Errorf("first year %d has more than four digits", r.FirstYear)
	}
	if r.ReleaseMonth < time.January || r.ReleaseMonth > time.December {
		return fmt.Errorf("release month %d is not a month", int(r.ReleaseMonth))
	}
	if _, err := ParseOffset(r.Offset); err != nil {
		return err
	}
	return nil
}

// Unlock is the unlocked part of the calendar at one instant: every year
// from FirstYear through Year, with Year unlocked through Day. Year may
// be below FirstYear before the archive's first release, in which case
// nothing is unlocked.
type Unlock struct {
	FirstYear int
	Year      int
	Day       int
}

// Contains reports whether year is an unlocked year.
func (u Unlock) Contains(year int) bool {
	return year >= u.FirstYear && year <= u.Year
}

// LastDay returns the last unlocked day of year: DaysPerYear for past
// years, Day for the latest year, and 0 for years outside the range.
func (u Unlock) LastDay(year int) int {
	switch {
	case !u.Contains(year):
		return 0
	case year == u.Year:
		return u.Day
	default:
		return DaysPerYear
	}
}

// Years returns the number of unlocked years.
func (u Unlock) Years() int {
	if u.Year < u.FirstYear {
		return 0
	}
	return u.Year - u.FirstYear + 1
}

// Policy computes the unlock boundary from an injected clock.
type Policy struct {
	clock        clock.Clock
	location     *time.Location
	firstYear    int
	releaseMonth time.Month
}

// NewPolicy validates rules and returns a Policy reading time from
// source. A malformed offset is reported here, once, rather than on
// every lookup.
func NewPolicy(rules Rules, source clock.Clock) (*Policy, error) {
	if source == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	location, err := ParseOffset(rules.Offset)
	if err != nil {
		return nil, err
	}
	return &Policy{
		clock:        source,
		location:     location,
		firstYear:    rules.FirstYear,
		releaseMonth: rules.ReleaseMonth,
	}, nil
}

// FirstYear returns the archive's first year.
func (p *Policy) FirstYear() int { return p.firstYear }

// Unlocked returns the unlock boundary for the current time. It is
// recomputed on every call.
func (p *Policy) Unlocked() Unlock {
	return p.UnlockedAt(p.clock.Now())
}

// UnlockedAt returns the unlock boundary at instant now.
func (p *Policy) UnlockedAt(now time.Time) Unlock {
	year, month, day := now.In(p.location).Date()
	unlock := Unlock{FirstYear: p.firstYear}
	switch {
	case month == p.releaseMonth:
		unlock.Year, unlock.Day = year, min(day, DaysPerYear)
	case month < p.releaseMonth:
		unlock.Year, unlock.Day = year-1, DaysPerYear
	default:
		// Only reachable with a release month before December. The
		// month's puzzles are all out, so this year is complete rather
		// than the year before.
		unlock.Year, unlock.Day = year, DaysPerYear
	}
	return unlock
}

// ReleaseTime returns the instant the puzzle at c unlocks: midnight of
// its day of the release month in the reference offset.
func (p *Policy) ReleaseTime(c Coordinate) time.Time {
	return time.Date(c.Year, p.releaseMonth, c.Day, 0, 0, 0, 0, p.location)
}
