// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package puzzlefs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/aocfs/lib/calendar"
)

// ContentStore provides the bytes behind daily files.
// inputcache.Cache is the production implementation.
type ContentStore interface {
	// Open returns a read-only file with the complete input,
	// fetching it first if needed.
	Open(ctx context.Context, coordinate calendar.Coordinate) (*os.File, error)

	// Size returns the cached length, or false when not cached.
	Size(coordinate calendar.Coordinate) (int64, bool, error)

	// Digest returns the hex content digest, or false when not cached.
	Digest(coordinate calendar.Coordinate) (string, bool, error)
}

// Options configures an Engine.
type Options struct {
	// Policy decides which part of the calendar is visible. Required.
	Policy *calendar.Policy

	// Content serves daily files. Required.
	Content ContentStore

	// Logger receives diagnostic messages. If nil, errors are
	// logged to stderr.
	Logger *slog.Logger
}

// Engine answers tree queries. It is safe for concurrent use.
type Engine struct {
	policy  *calendar.Policy
	content ContentStore
	logger  *slog.Logger
}

// NewEngine validates options and returns an Engine.
func NewEngine(options Options) (*Engine, error) {
	if options.Policy == nil {
		return nil, fmt.Errorf("calendar policy is required")
	}
	if options.Content == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	return &Engine{
		policy:  options.Policy,
		content: options.Content,
		logger:  options.Logger,
	}, nil
}

// classify returns the kind of id under unlock, or ErrNotFound when id
// names nothing in the tree.
func classify(id calendar.ID, unlock calendar.Unlock) (Kind, error) {
	switch {
	case id.IsRoot():
		return KindDirectory, nil
	case id.IsLatest():
		return KindSymlink, nil
	}
	coordinate := id.Coordinate()
	if !unlock.Contains(coordinate.Year) {
		return 0, ErrNotFound
	}
	switch {
	case coordinate.IsYearDirectory():
		return KindDirectory, nil
	case coordinate.IsLatestLink():
		return KindSymlink, nil
	case coordinate.IsInput() && coordinate.Day <= unlock.LastDay(coordinate.Year):
		return KindRegular, nil
	}
	return 0, ErrNotFound
}

// isDirectoryID reports whether id is shaped like a directory,
// regardless of the unlock boundary.
func isDirectoryID(id calendar.ID) bool {
	if id.IsRoot() {
		return true
	}
	return !id.IsLatest() && id.Coordinate().IsYearDirectory()
}

// ResolveChild looks up name in directory parent.
func (e *Engine) ResolveChild(parent calendar.ID, name string) (calendar.ID, error) {
	if !isDirectoryID(parent) {
		return 0, fmt.Errorf("lookup %q in %d: %w", name, parent, ErrNotADirectory)
	}
	unlock := e.policy.Unlocked()

	if parent.IsRoot() {
		if name == calendar.LatestName {
			return calendar.LatestID, nil
		}
		year, ok := calendar.ParseYearName(name)
		if !ok || !unlock.Contains(year) {
			return 0, fmt.Errorf("lookup %q in /: %w", name, ErrNotFound)
		}
		return calendar.YearDirectory(year).ID(), nil
	}

	year := parent.Coordinate().Year
	if !unlock.Contains(year) {
		return 0, fmt.Errorf("lookup %q in %d: %w", name, year, ErrNotFound)
	}
	if calendar.IsLatestName(name) {
		return calendar.Coordinate{Year: year, Day: calendar.LatestDay}.ID(), nil
	}
	day, ok := calendar.ParseDayName(name)
	if !ok {
		return 0, fmt.Errorf("lookup %q in %d: %w", name, year, ErrNotFound)
	}
	if day == calendar.LatestDay {
		// day26 is the year's latest link under its numeric name.
		return calendar.Coordinate{Year: year, Day: calendar.LatestDay}.ID(), nil
	}
	if day < 1 || day > unlock.LastDay(year) {
		return 0, fmt.Errorf("lookup %q in %d: %w", name, year, ErrNotFound)
	}
	return calendar.Coordinate{Year: year, Day: day}.ID(), nil
}

// GetAttributes returns the metadata of id and how long the caller may
// cache it. The answer is computed fresh on every call.
func (e *Engine) GetAttributes(id calendar.ID) (time.Duration, Attributes, error) {
	unlock := e.policy.Unlocked()
	kind, err := classify(id, unlock)
	if err != nil {
		return 0, Attributes{}, fmt.Errorf("getattr %d: %w", id, err)
	}

	attributes := Attributes{
		ID:      id,
		Kind:    kind,
		Nlink:   1,
		Blksize: BlockSize,
	}
	switch kind {
	case KindDirectory:
		attributes.Perm = DirectoryPerm
		attributes.Nlink = 2
		if id.IsRoot() {
			attributes.Nlink += uint32(unlock.Years())
			attributes.Mtime = e.latestRelease(unlock)
		} else {
			year := id.Coordinate().Year
			attributes.Mtime = e.policy.ReleaseTime(calendar.Coordinate{Year: year, Day: unlock.LastDay(year)})
		}

	case KindSymlink:
		target, err := linkTarget(id, unlock)
		if err != nil {
			return 0, Attributes{}, fmt.Errorf("getattr %d: %w", id, err)
		}
		attributes.Perm = SymlinkPerm
		attributes.Size = uint64(len(target))
		if id.IsLatest() {
			attributes.Mtime = e.latestRelease(unlock)
		} else {
			year := id.Coordinate().Year
			attributes.Mtime = e.policy.ReleaseTime(calendar.Coordinate{Year: year, Day: unlock.LastDay(year)})
		}

	case KindRegular:
		coordinate := id.Coordinate()
		size, cached, err := e.content.Size(coordinate)
		if err != nil {
			return 0, Attributes{}, fmt.Errorf("getattr %v: %w: %w", coordinate, ErrIO, err)
		}
		attributes.Perm = FilePerm
		attributes.Size = PlaceholderSize
		if cached {
			attributes.Size = uint64(size)
		}
		attributes.Mtime = e.policy.ReleaseTime(coordinate)
	}
	attributes.Blocks = blocks(attributes.Size)
	return DefaultAttrValidity, attributes, nil
}

// latestRelease is the release instant of the newest unlocked puzzle,
// or the Unix epoch when nothing is unlocked yet.
func (e *Engine) latestRelease(unlock calendar.Unlock) time.Time {
	if unlock.Years() == 0 {
		return time.Unix(0, 0)
	}
	return e.policy.ReleaseTime(calendar.Coordinate{Year: unlock.Year, Day: unlock.Day})
}

// linkTarget returns the text of a symlink id.
func linkTarget(id calendar.ID, unlock calendar.Unlock) (string, error) {
	if id.IsLatest() {
		return calendar.YearName(unlock.Year), nil
	}
	coordinate := id.Coordinate()
	if id.IsRoot() || !coordinate.IsLatestLink() {
		return "", ErrInvalidArgument
	}
	if !unlock.Contains(coordinate.Year) {
		return "", ErrNotFound
	}
	return calendar.DayFileName(unlock.LastDay(coordinate.Year)), nil
}

// ReadLink returns the target of a symlink: the newest year for
// /latest, the newest day file for /<year>/latest.
func (e *Engine) ReadLink(id calendar.ID) (string, error) {
	target, err := linkTarget(id, e.policy.Unlocked())
	if err != nil {
		return "", fmt.Errorf("readlink %d: %w", id, err)
	}
	return target, nil
}

// ListChildren emits the entries of directory id starting at cursor
// start: ".", "..", the children in ascending order, then "latest".
// Entry i carries Offset i+1, so passing an entry's Offset back as
// start resumes right after it. When sink returns false the refused
// entry is not consumed and the returned Listing resumes at it.
func (e *Engine) ListChildren(id calendar.ID, start uint64, sink func(DirEntry) bool) (Listing, error) {
	if !isDirectoryID(id) {
		return Listing{}, fmt.Errorf("readdir %d: %w", id, ErrNotADirectory)
	}
	unlock := e.policy.Unlocked()

	var entries []DirEntry
	if id.IsRoot() {
		entries = make([]DirEntry, 0, unlock.Years()+3)
		entries = append(entries,
			DirEntry{ID: calendar.RootID, Kind: KindDirectory, Name: "."},
			DirEntry{ID: calendar.RootID, Kind: KindDirectory, Name: ".."},
		)
		for year := unlock.FirstYear; year <= unlock.Year; year++ {
			entries = append(entries, DirEntry{
				ID:   calendar.YearDirectory(year).ID(),
				Kind: KindDirectory,
				Name: calendar.YearName(year),
			})
		}
		entries = append(entries, DirEntry{ID: calendar.LatestID, Kind: KindSymlink, Name: calendar.LatestName})
	} else {
		year := id.Coordinate().Year
		if !unlock.Contains(year) {
			return Listing{}, fmt.Errorf("readdir %d: %w", year, ErrNotFound)
		}
		lastDay := unlock.LastDay(year)
		entries = make([]DirEntry, 0, lastDay+3)
		entries = append(entries,
			DirEntry{ID: id, Kind: KindDirectory, Name: "."},
			DirEntry{ID: calendar.RootID, Kind: KindDirectory, Name: ".."},
		)
		for day := 1; day <= lastDay; day++ {
			entries = append(entries, DirEntry{
				ID:   calendar.Coordinate{Year: year, Day: day}.ID(),
				Kind: KindRegular,
				Name: calendar.DayFileName(day),
			})
		}
		entries = append(entries, DirEntry{
			ID:   calendar.Coordinate{Year: year, Day: calendar.LatestDay}.ID(),
			Kind: KindSymlink,
			Name: calendar.LatestName,
		})
	}

	total := uint64(len(entries))
	for position := start; position < total; position++ {
		entry := entries[position]
		entry.Offset = position + 1
		if !sink(entry) {
			return Listing{More: true, Resume: position}, nil
		}
	}
	return Listing{More: false, Resume: total}, nil
}

// Open returns a read-only file with the content of daily file id,
// fetching it on first use. The caller owns the file; see HandleTable.
func (e *Engine) Open(ctx context.Context, id calendar.ID) (*os.File, error) {
	kind, err := classify(id, e.policy.Unlocked())
	if err != nil {
		return nil, fmt.Errorf("open %d: %w", id, err)
	}
	switch kind {
	case KindDirectory:
		return nil, fmt.Errorf("open %d: %w", id, ErrIsADirectory)
	case KindSymlink:
		return nil, fmt.Errorf("open %d: %w", id, ErrInvalidArgument)
	}

	coordinate := id.Coordinate()
	file, err := e.content.Open(ctx, coordinate)
	if err != nil {
		e.logger.Error("opening input failed",
			"year", coordinate.Year,
			"day", coordinate.Day,
			"error", err,
		)
		return nil, fmt.Errorf("open %v: %w: %w", coordinate, ErrIO, err)
	}
	return file, nil
}

// Digest returns the hex BLAKE3 digest of a cached daily file.
// ErrNoData when id is not a daily file or its input is not cached.
func (e *Engine) Digest(id calendar.ID) (string, error) {
	kind, err := classify(id, e.policy.Unlocked())
	if err != nil {
		return "", fmt.Errorf("digest %d: %w", id, err)
	}
	if kind != KindRegular {
		return "", fmt.Errorf("digest %d: %w", id, ErrNoData)
	}
	coordinate := id.Coordinate()
	digest, cached, err := e.content.Digest(coordinate)
	if err != nil {
		return "", fmt.Errorf("digest %v: %w: %w", coordinate, ErrIO, err)
	}
	if !cached {
		return "", fmt.Errorf("digest %v: %w", coordinate, ErrNoData)
	}
	return digest, nil
}
