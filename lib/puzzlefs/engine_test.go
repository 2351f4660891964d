// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package puzzlefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/clock"
)

// memoryStore is a ContentStore over a payload map. Open materializes
// the payload into a file, standing in for a cache fill.
type memoryStore struct {
	directory string

	mu       sync.Mutex
	payloads map[calendar.Coordinate]string
	cached   map[calendar.Coordinate]bool
	opens    int
}

func newMemoryStore(t *testing.T) *memoryStore {
	return &memoryStore{
		directory: t.TempDir(),
		payloads:  make(map[calendar.Coordinate]string),
		cached:    make(map[calendar.Coordinate]bool),
	}
}

func (s *memoryStore) set(coordinate calendar.Coordinate, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[coordinate] = payload
}

func (s *memoryStore) path(coordinate calendar.Coordinate) string {
	return filepath.Join(s.directory, fmt.Sprintf("%d-%02d", coordinate.Year, coordinate.Day))
}

func (s *memoryStore) Open(ctx context.Context, coordinate calendar.Coordinate) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	payload, ok := s.payloads[coordinate]
	if !ok {
		return nil, errors.New("fetching input: status 500")
	}
	if err := os.WriteFile(s.path(coordinate), []byte(payload), 0o644); err != nil {
		return nil, err
	}
	s.cached[coordinate] = true
	return os.Open(s.path(coordinate))
}

func (s *memoryStore) Size(coordinate calendar.Coordinate) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cached[coordinate] {
		return 0, false, nil
	}
	return int64(len(s.payloads[coordinate])), true, nil
}

func (s *memoryStore) Digest(coordinate calendar.Coordinate) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cached[coordinate] {
		return "", false, nil
	}
	return "digest-of-" + s.payloads[coordinate], true, nil
}

type testEngine struct {
	*Engine
	clock *clock.FakeClock
	store *memoryStore
}

// newTestEngine builds an Engine with default rules whose clock reads
// now.
func newTestEngine(t *testing.T, now time.Time) testEngine {
	t.Helper()
	fake := clock.Fake(now)
	policy, err := calendar.NewPolicy(calendar.DefaultRules(), fake)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	store := newMemoryStore(t)
	engine, err := NewEngine(Options{Policy: policy, Content: store})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return testEngine{Engine: engine, clock: fake, store: store}
}

// decemberTenth2020 is 2020-12-10 07:00 at the reference offset.
var decemberTenth2020 = time.Date(2020, time.December, 10, 12, 0, 0, 0, time.UTC)

func yearID(year int) calendar.ID { return calendar.YearDirectory(year).ID() }

func dayID(year, day int) calendar.ID { return calendar.Coordinate{Year: year, Day: day}.ID() }

func TestScenarioNewYearsDay(t *testing.T) {
	engine := newTestEngine(t, time.Date(2016, time.January, 1, 12, 0, 0, 0, time.UTC))

	if _, err := engine.ResolveChild(calendar.RootID, "2016"); !errors.Is(err, ErrNotFound) {
		t.Errorf("resolve 2016: expected ErrNotFound, got %v", err)
	}
	year, err := engine.ResolveChild(calendar.RootID, "2015")
	if err != nil || year != yearID(2015) {
		t.Fatalf("resolve 2015 = %d, %v; want %d", year, err, yearID(2015))
	}
	link, err := engine.ResolveChild(year, "day26.txt")
	if err != nil || link != dayID(2015, 26) {
		t.Fatalf("resolve day26.txt = %d, %v; want %d", link, err, dayID(2015, 26))
	}
	target, err := engine.ReadLink(link)
	if err != nil || target != "day25.txt" {
		t.Errorf("readlink = %q, %v; want day25.txt", target, err)
	}
}

func TestScenarioMidRelease(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	if _, err := engine.ResolveChild(yearID(2020), "day11.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("resolve day11.txt: expected ErrNotFound, got %v", err)
	}
	id, err := engine.ResolveChild(yearID(2020), "day10.txt")
	if err != nil {
		t.Fatalf("resolve day10.txt: %v", err)
	}
	_, attributes, err := engine.GetAttributes(id)
	if err != nil {
		t.Fatalf("GetAttributes: %v", err)
	}
	if attributes.Kind != KindRegular {
		t.Errorf("kind = %v, want regular", attributes.Kind)
	}
}

func TestResolveChildRoot(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	tests := []struct {
		name string
		want calendar.ID
		err  error
	}{
		{name: "latest", want: calendar.LatestID},
		{name: "2015", want: yearID(2015)},
		{name: "2020", want: yearID(2020)},
		{name: "2014", err: ErrNotFound},
		{name: "2021", err: ErrNotFound},
		{name: "02015", err: ErrNotFound},
		{name: "+2015", err: ErrNotFound},
		{name: "latest.txt", err: ErrNotFound},
		{name: "day01.txt", err: ErrNotFound},
		{name: "", err: ErrNotFound},
	}
	for _, test := range tests {
		got, err := engine.ResolveChild(calendar.RootID, test.name)
		if test.err != nil {
			if !errors.Is(err, test.err) {
				t.Errorf("%q: expected %v, got %d, %v", test.name, test.err, got, err)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("%q = %d, %v; want %d", test.name, got, err, test.want)
		}
	}
}

func TestResolveChildYear(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	tests := []struct {
		year int
		name string
		want calendar.ID
		err  error
	}{
		{year: 2019, name: "day01.txt", want: dayID(2019, 1)},
		{year: 2019, name: "day1", want: dayID(2019, 1)},
		{year: 2019, name: "day25.input", want: dayID(2019, 25)},
		{year: 2019, name: "latest", want: dayID(2019, 26)},
		{year: 2019, name: "latest.txt", want: dayID(2019, 26)},
		{year: 2019, name: "day26.txt", want: dayID(2019, 26)},
		{year: 2020, name: "day10.txt", want: dayID(2020, 10)},
		{year: 2020, name: "day26", want: dayID(2020, 26)},
		{year: 2020, name: "day11.txt", err: ErrNotFound},
		{year: 2019, name: "day00.txt", err: ErrNotFound},
		{year: 2019, name: "day27.txt", err: ErrNotFound},
		{year: 2019, name: "day007", err: ErrNotFound},
		{year: 2019, name: "day01.md", err: ErrNotFound},
		{year: 2019, name: "2019", err: ErrNotFound},
		{year: 2021, name: "day01.txt", err: ErrNotFound},
		{year: 2014, name: "latest", err: ErrNotFound},
	}
	for _, test := range tests {
		got, err := engine.ResolveChild(yearID(test.year), test.name)
		if test.err != nil {
			if !errors.Is(err, test.err) {
				t.Errorf("%d/%q: expected %v, got %d, %v", test.year, test.name, test.err, got, err)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("%d/%q = %d, %v; want %d", test.year, test.name, got, err, test.want)
		}
	}
}

func TestResolveChildNonDirectoryParent(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)
	for _, parent := range []calendar.ID{calendar.LatestID, dayID(2019, 1), dayID(2019, 26), dayID(2030, 3)} {
		if _, err := engine.ResolveChild(parent, "day01.txt"); !errors.Is(err, ErrNotADirectory) {
			t.Errorf("parent %d: expected ErrNotADirectory, got %v", parent, err)
		}
	}
}

func TestUnlockAdvancesWithoutRestart(t *testing.T) {
	// 23:30 on December 10 at the reference offset.
	engine := newTestEngine(t, time.Date(2020, time.December, 11, 4, 30, 0, 0, time.UTC))

	if _, err := engine.ResolveChild(yearID(2020), "day11.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("day 11 visible before midnight: %v", err)
	}
	engine.clock.Advance(time.Hour)
	if _, err := engine.ResolveChild(yearID(2020), "day11.txt"); err != nil {
		t.Fatalf("day 11 not visible after midnight: %v", err)
	}
	target, err := engine.ReadLink(dayID(2020, 26))
	if err != nil || target != "day11.txt" {
		t.Errorf("readlink = %q, %v; want day11.txt", target, err)
	}
}

func TestGetAttributesDirectories(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	validity, root, err := engine.GetAttributes(calendar.RootID)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if validity != DefaultAttrValidity {
		t.Errorf("validity = %v, want %v", validity, DefaultAttrValidity)
	}
	if root.Kind != KindDirectory || root.Perm != DirectoryPerm {
		t.Errorf("root kind/perm = %v/%o", root.Kind, root.Perm)
	}
	// 2015 through 2020.
	if root.Nlink != 2+6 {
		t.Errorf("root nlink = %d, want 8", root.Nlink)
	}

	_, year, err := engine.GetAttributes(yearID(2017))
	if err != nil {
		t.Fatalf("year: %v", err)
	}
	if year.Kind != KindDirectory || year.Nlink != 2 {
		t.Errorf("year kind/nlink = %v/%d", year.Kind, year.Nlink)
	}

	for _, id := range []calendar.ID{yearID(2014), yearID(2021)} {
		if _, _, err := engine.GetAttributes(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("%d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestGetAttributesFiles(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)
	coordinate := calendar.Coordinate{Year: 2020, Day: 3}
	engine.store.set(coordinate, "..#\n#..\n")

	_, before, err := engine.GetAttributes(coordinate.ID())
	if err != nil {
		t.Fatalf("GetAttributes: %v", err)
	}
	if before.Kind != KindRegular || before.Perm != FilePerm || before.Nlink != 1 {
		t.Errorf("file kind/perm/nlink = %v/%o/%d", before.Kind, before.Perm, before.Nlink)
	}
	if before.Size != PlaceholderSize {
		t.Errorf("uncached size = %d, want %d", before.Size, PlaceholderSize)
	}
	wantMtime := time.Date(2020, time.December, 3, 5, 0, 0, 0, time.UTC)
	if !before.Mtime.Equal(wantMtime) {
		t.Errorf("mtime = %v, want %v", before.Mtime, wantMtime)
	}

	file, err := engine.Open(context.Background(), coordinate.ID())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	file.Close()

	_, after, err := engine.GetAttributes(coordinate.ID())
	if err != nil {
		t.Fatalf("GetAttributes after open: %v", err)
	}
	if after.Size != 8 || after.Blocks != 1 {
		t.Errorf("cached size/blocks = %d/%d, want 8/1", after.Size, after.Blocks)
	}

	for _, id := range []calendar.ID{dayID(2020, 11), dayID(2019, 0) + 27, dayID(2021, 1)} {
		if _, _, err := engine.GetAttributes(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("%d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestGetAttributesSymlinks(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	_, latest, err := engine.GetAttributes(calendar.LatestID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Kind != KindSymlink || latest.Size != uint64(len("2020")) {
		t.Errorf("latest kind/size = %v/%d", latest.Kind, latest.Size)
	}

	_, yearLatest, err := engine.GetAttributes(dayID(2020, 26))
	if err != nil {
		t.Fatalf("year latest: %v", err)
	}
	if yearLatest.Kind != KindSymlink || yearLatest.Size != uint64(len("day10.txt")) {
		t.Errorf("year latest kind/size = %v/%d", yearLatest.Kind, yearLatest.Size)
	}
}

func TestSentinelResolvesBeforeFirstRelease(t *testing.T) {
	engine := newTestEngine(t, time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC))

	_, root, err := engine.GetAttributes(calendar.RootID)
	if err != nil || root.Nlink != 2 {
		t.Errorf("root = nlink %d, %v; want 2", root.Nlink, err)
	}
	if _, _, err := engine.GetAttributes(calendar.LatestID); err != nil {
		t.Errorf("latest: %v", err)
	}
	if _, err := engine.ResolveChild(calendar.RootID, "2015"); !errors.Is(err, ErrNotFound) {
		t.Errorf("2015 visible before its release: %v", err)
	}
}

func TestReadLink(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	tests := []struct {
		id   calendar.ID
		want string
		err  error
	}{
		{id: calendar.LatestID, want: "2020"},
		{id: dayID(2020, 26), want: "day10.txt"},
		{id: dayID(2016, 26), want: "day25.txt"},
		{id: dayID(2021, 26), err: ErrNotFound},
		{id: dayID(2014, 26), err: ErrNotFound},
		{id: calendar.RootID, err: ErrInvalidArgument},
		{id: yearID(2020), err: ErrInvalidArgument},
		{id: dayID(2020, 1), err: ErrInvalidArgument},
	}
	for _, test := range tests {
		got, err := engine.ReadLink(test.id)
		if test.err != nil {
			if !errors.Is(err, test.err) {
				t.Errorf("%d: expected %v, got %q, %v", test.id, test.err, got, err)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("%d = %q, %v; want %q", test.id, got, err, test.want)
		}
	}
}

// collect drains a listing with at most budget entries per call and
// returns the names in order.
func collect(t *testing.T, engine *Engine, id calendar.ID, budget int) []string {
	t.Helper()
	var names []string
	var cursor uint64
	for calls := 0; ; calls++ {
		if calls > 1000 {
			t.Fatalf("listing did not terminate with budget %d", budget)
		}
		accepted := 0
		listing, err := engine.ListChildren(id, cursor, func(entry DirEntry) bool {
			if accepted == budget {
				return false
			}
			accepted++
			names = append(names, entry.Name)
			cursor = entry.Offset
			return true
		})
		if err != nil {
			t.Fatalf("ListChildren: %v", err)
		}
		if !listing.More {
			return names
		}
		if listing.Resume != cursor {
			t.Fatalf("budget %d: resume %d differs from last offset %d", budget, listing.Resume, cursor)
		}
	}
}

func TestListChildrenOrder(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	root := collect(t, engine.Engine, calendar.RootID, 1000)
	wantRoot := []string{".", "..", "2015", "2016", "2017", "2018", "2019", "2020", "latest"}
	if !reflect.DeepEqual(root, wantRoot) {
		t.Errorf("root = %v, want %v", root, wantRoot)
	}

	year := collect(t, engine.Engine, yearID(2020), 1000)
	wantYear := []string{".", "..", "day01.txt", "day02.txt", "day03.txt", "day04.txt", "day05.txt",
		"day06.txt", "day07.txt", "day08.txt", "day09.txt", "day10.txt", "latest"}
	if !reflect.DeepEqual(year, wantYear) {
		t.Errorf("2020 = %v, want %v", year, wantYear)
	}
}

func TestListChildrenResumesAtEveryBudget(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	for _, id := range []calendar.ID{calendar.RootID, yearID(2016), yearID(2020)} {
		want := collect(t, engine.Engine, id, 1000)
		for budget := 1; budget <= len(want)+1; budget++ {
			got := collect(t, engine.Engine, id, budget)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%d budget %d: got %v, want %v", id, budget, got, want)
			}
		}
	}
}

func TestListChildrenEntries(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	var entries []DirEntry
	listing, err := engine.ListChildren(yearID(2020), 0, func(entry DirEntry) bool {
		entries = append(entries, entry)
		return true
	})
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if listing.More || listing.Resume != uint64(len(entries)) {
		t.Errorf("listing = %+v, want drained at %d", listing, len(entries))
	}
	for i, entry := range entries {
		if entry.Offset != uint64(i+1) {
			t.Errorf("entry %d %q offset = %d", i, entry.Name, entry.Offset)
		}
	}
	if entries[0].ID != yearID(2020) || entries[1].ID != calendar.RootID {
		t.Errorf("dot entries = %d, %d", entries[0].ID, entries[1].ID)
	}
	if day := entries[2]; day.ID != dayID(2020, 1) || day.Kind != KindRegular {
		t.Errorf("first day = %+v", day)
	}
	if last := entries[len(entries)-1]; last.ID != dayID(2020, 26) || last.Kind != KindSymlink {
		t.Errorf("last entry = %+v", last)
	}
}

func TestListChildrenRefusedEntryIsNotConsumed(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)

	listing, err := engine.ListChildren(calendar.RootID, 4, func(DirEntry) bool { return false })
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if !listing.More || listing.Resume != 4 {
		t.Errorf("listing = %+v, want more at 4", listing)
	}

	listing, err = engine.ListChildren(calendar.RootID, 100, func(DirEntry) bool {
		t.Error("sink called past the end")
		return true
	})
	if err != nil || listing.More || listing.Resume != 9 {
		t.Errorf("past the end = %+v, %v; want drained at 9", listing, err)
	}
}

func TestListChildrenErrors(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)
	sink := func(DirEntry) bool { return true }

	for _, id := range []calendar.ID{calendar.LatestID, dayID(2020, 1), dayID(2020, 26)} {
		if _, err := engine.ListChildren(id, 0, sink); !errors.Is(err, ErrNotADirectory) {
			t.Errorf("%d: expected ErrNotADirectory, got %v", id, err)
		}
	}
	if _, err := engine.ListChildren(yearID(2021), 0, sink); !errors.Is(err, ErrNotFound) {
		t.Errorf("2021: expected ErrNotFound, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)
	engine.store.set(calendar.Coordinate{Year: 2020, Day: 1}, "1721\n979\n")

	file, err := engine.Open(context.Background(), dayID(2020, 1))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil || string(data) != "1721\n979\n" {
		t.Errorf("content = %q, %v", data, err)
	}

	tests := []struct {
		id  calendar.ID
		err error
	}{
		{id: calendar.RootID, err: ErrIsADirectory},
		{id: yearID(2020), err: ErrIsADirectory},
		{id: calendar.LatestID, err: ErrInvalidArgument},
		{id: dayID(2020, 26), err: ErrInvalidArgument},
		{id: dayID(2020, 11), err: ErrNotFound},
		{id: dayID(2021, 1), err: ErrNotFound},
		{id: dayID(2020, 2), err: ErrIO},
	}
	for _, test := range tests {
		if _, err := engine.Open(context.Background(), test.id); !errors.Is(err, test.err) {
			t.Errorf("%d: expected %v, got %v", test.id, test.err, err)
		}
	}
}

func TestDigest(t *testing.T) {
	engine := newTestEngine(t, decemberTenth2020)
	coordinate := calendar.Coordinate{Year: 2020, Day: 4}
	engine.store.set(coordinate, "payload")

	if _, err := engine.Digest(coordinate.ID()); !errors.Is(err, ErrNoData) {
		t.Errorf("uncached: expected ErrNoData, got %v", err)
	}
	file, err := engine.Open(context.Background(), coordinate.ID())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	file.Close()

	digest, err := engine.Digest(coordinate.ID())
	if err != nil || !strings.HasPrefix(digest, "digest-of-") {
		t.Errorf("Digest = %q, %v", digest, err)
	}
	if _, err := engine.Digest(yearID(2020)); !errors.Is(err, ErrNoData) {
		t.Errorf("directory: expected ErrNoData, got %v", err)
	}
	if _, err := engine.Digest(dayID(2020, 20)); !errors.Is(err, ErrNotFound) {
		t.Errorf("locked day: expected ErrNotFound, got %v", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	policy, err := calendar.NewPolicy(calendar.DefaultRules(), clock.Fake(decemberTenth2020))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(Options{Content: newMemoryStore(t)}); err == nil {
		t.Error("expected error without a policy")
	}
	if _, err := NewEngine(Options{Policy: policy}); err == nil {
		t.Error("expected error without a content store")
	}
}
