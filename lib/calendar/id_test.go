// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import "testing"

func TestCoordinateRoundTrip(t *testing.T) {
	for year := DefaultFirstYear; year <= DefaultFirstYear+30; year++ {
		for day := 0; day <= LatestDay; day++ {
			coordinate := Coordinate{Year: year, Day: day}
			got := coordinate.ID().Coordinate()
			if got != coordinate {
				t.Fatalf("decode(encode(%v)) = %v", coordinate, got)
			}
		}
	}
}

func TestReservedIDsDistinct(t *testing.T) {
	if RootID == LatestID {
		t.Fatal("RootID and LatestID collide")
	}

	seen := map[ID]Coordinate{}
	for year := DefaultFirstYear; year <= 9999; year++ {
		for day := 0; day <= LatestDay; day++ {
			coordinate := Coordinate{Year: year, Day: day}
			id := coordinate.ID()
			if id == RootID || id == LatestID {
				t.Fatalf("%v encodes to reserved id %d", coordinate, id)
			}
			if previous, ok := seen[id]; ok {
				t.Fatalf("%v and %v both encode to %d", previous, coordinate, id)
			}
			seen[id] = coordinate
		}
	}
}

func TestLatestIDDecodesBelowEpoch(t *testing.T) {
	coordinate := LatestID.Coordinate()
	if coordinate.Year >= DefaultFirstYear || coordinate.Day != 0 {
		t.Errorf("LatestID decodes to %v, want a year directory below %d", coordinate, DefaultFirstYear)
	}
	if !LatestID.IsLatest() || LatestID.IsRoot() {
		t.Error("LatestID predicates are wrong")
	}
	if !RootID.IsRoot() || RootID.IsLatest() {
		t.Error("RootID predicates are wrong")
	}
}

func TestCoordinateKinds(t *testing.T) {
	tests := []struct {
		day    int
		year   bool
		input  bool
		latest bool
	}{
		{0, true, false, false},
		{1, false, true, false},
		{25, false, true, false},
		{26, false, false, true},
		{27, false, false, false},
		{99, false, false, false},
	}
	for _, test := range tests {
		coordinate := Coordinate{Year: 2020, Day: test.day}
		if got := coordinate.IsYearDirectory(); got != test.year {
			t.Errorf("day %d: IsYearDirectory = %v", test.day, got)
		}
		if got := coordinate.IsInput(); got != test.input {
			t.Errorf("day %d: IsInput = %v", test.day, got)
		}
		if got := coordinate.IsLatestLink(); got != test.latest {
			t.Errorf("day %d: IsLatestLink = %v", test.day, got)
		}
	}
}

func TestCoordinateString(t *testing.T) {
	tests := []struct {
		coordinate Coordinate
		want       string
	}{
		{Coordinate{Year: 2015}, "2015"},
		{Coordinate{Year: 2015, Day: 3}, "2015/day03.txt"},
		{Coordinate{Year: 2015, Day: 26}, "2015/latest"},
	}
	for _, test := range tests {
		if got := test.coordinate.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.coordinate, got, test.want)
		}
	}
}
