// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"fmt"
	"regexp"
	"strconv"
)

// LatestName is the name of both "latest" symlinks.
const LatestName = "latest"

var (
	yearPattern   = regexp.MustCompile(`^[1-9][0-9]{3}$`)
	dayPattern    = regexp.MustCompile(`^day([0-9]{1,2})(?:\.txt|\.input)?$`)
	latestPattern = regexp.MustCompile(`^latest(?:\.txt|\.input)?$`)
)

// DayFileName returns the listed name of a daily input, e.g. "day05.txt".
func DayFileName(day int) string {
	return fmt.Sprintf("day%02d.txt", day)
}

// YearName returns the listed name of a year directory.
func YearName(year int) string {
	return strconv.Itoa(year)
}

// ParseYearName parses a year directory name. Only canonical four-digit
// decimal years are accepted, so "02015" and "+2015" do not alias 2015.
func ParseYearName(name string) (int, bool) {
	if !yearPattern.MatchString(name) {
		return 0, false
	}
	year, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseDayName parses "dayN", "dayNN", optionally followed by ".txt" or
// ".input". The returned day is syntactic (0..99); range checks belong
// to the caller.
func ParseDayName(name string) (int, bool) {
	match := dayPattern.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	day, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return day, true
}

// IsLatestName reports whether name refers to a year's "latest" symlink:
// "latest", "latest.txt", or "latest.input".
func IsLatestName(name string) bool {
	return latestPattern.MatchString(name)
}
