// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inputcache keeps puzzle inputs on local disk.
//
// The layout is <root>/<year>/dayNN.txt, one file per coordinate, byte
// for byte what the archive served. A file's existence means a complete
// fetch: the fill path writes into a temp file beside the target, syncs
// it, and renames it into place. Nothing else writes under the root.
//
// Entries never expire and failures are never cached: a failed fill
// leaves nothing behind, so the next open fetches again. Temp files
// orphaned by a crash are removed when the cache is opened. Concurrent
// first opens of one coordinate within a process share one fetch.
package inputcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/bureau-foundation/aocfs/lib/calendar"
)

var (
	// ErrFetch is wrapped by Open errors caused by a failed fill.
	ErrFetch = errors.New("fetching input")

	// ErrEmptyPayload is returned when the archive serves a
	// zero-length input. Real inputs are never empty, so an empty
	// body is treated as a failure and not cached.
	ErrEmptyPayload = errors.New("archive returned an empty input")

	// ErrNotInput is returned for coordinates that do not name a
	// daily input (year directories and latest links).
	ErrNotInput = errors.New("coordinate is not a puzzle input")
)

// Fetcher streams one puzzle input into dst. archive.Client is the
// production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, coordinate calendar.Coordinate, dst io.Writer) (int64, error)
}

// Options configures a Cache.
type Options struct {
	// Root is the cache directory. Created if missing.
	Root string

	// Fetcher fills misses. Required.
	Fetcher Fetcher

	// Logger receives diagnostic messages. If nil, errors are
	// logged to stderr.
	Logger *slog.Logger
}

// Cache is the on-disk input cache. It is safe for concurrent use.
type Cache struct {
	root    string
	fetcher Fetcher
	logger  *slog.Logger
	fills   singleflight.Group
}

// New validates options, creates the root directory, and returns a
// Cache.
func New(options Options) (*Cache, error) {
	if options.Root == "" {
		return nil, fmt.Errorf("cache root is required")
	}
	if options.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	if err := os.MkdirAll(options.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	cache := &Cache{
		root:    options.Root,
		fetcher: options.Fetcher,
		logger:  options.Logger,
	}
	if err := cache.removeStaleTemps(); err != nil {
		return nil, err
	}
	return cache, nil
}

// tempPattern matches the fill's temp files inside a year directory.
const tempPattern = ".day*.txt.*.tmp"

// removeStaleTemps deletes temp files a crashed fill left behind. A
// live fill in another process sharing the root loses its temp file
// and fails; the next open fetches again.
func (c *Cache) removeStaleTemps() error {
	stale, err := filepath.Glob(filepath.Join(c.root, "*", tempPattern))
	if err != nil {
		return fmt.Errorf("scanning cache for temp files: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale temp file: %w", err)
		}
		c.logger.Info("removed stale temp file", "path", path)
	}
	return nil
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.root }

// Path returns the cache file path for coordinate.
func (c *Cache) Path(coordinate calendar.Coordinate) string {
	return filepath.Join(c.root, strconv.Itoa(coordinate.Year), calendar.DayFileName(coordinate.Day))
}

// Open returns a read-only file holding the complete input at
// coordinate, fetching it first on a miss. The caller closes the file.
//
// The fill is detached from ctx: a caller that gives up does not abort
// a fetch other callers are waiting on. ctx still bounds this caller's
// wait.
func (c *Cache) Open(ctx context.Context, coordinate calendar.Coordinate) (*os.File, error) {
	if !coordinate.IsInput() {
		return nil, fmt.Errorf("%v: %w", coordinate, ErrNotInput)
	}
	path := c.Path(coordinate)

	file, err := os.Open(path)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening cached %v: %w", coordinate, err)
	}

	fill := c.fills.DoChan(coordinate.String(), func() (any, error) {
		return nil, c.fill(context.WithoutCancel(ctx), coordinate)
	})
	select {
	case result := <-fill:
		if result.Err != nil {
			return nil, result.Err
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %v: %w", coordinate, ctx.Err())
	}

	file, err = os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cached %v: %w", coordinate, err)
	}
	return file, nil
}

// fill fetches coordinate into its cache path unless another fill
// already placed it there.
func (c *Cache) fill(ctx context.Context, coordinate calendar.Coordinate) error {
	finalPath := c.Path(coordinate)
	if _, err := os.Stat(finalPath); err == nil {
		return nil
	}

	directory := filepath.Dir(finalPath)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("%w %v: creating year directory: %w", ErrFetch, coordinate, err)
	}

	// Matches tempPattern.
	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(finalPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %v: creating temp file: %w", ErrFetch, coordinate, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := c.fetcher.Fetch(ctx, coordinate, tmpFile)
	if err != nil {
		c.logger.Error("input fetch failed",
			"year", coordinate.Year,
			"day", coordinate.Day,
			"error", err,
		)
		return fmt.Errorf("%w %v: %w", ErrFetch, coordinate, err)
	}
	if written == 0 {
		c.logger.Error("input fetch returned no data",
			"year", coordinate.Year,
			"day", coordinate.Day,
		)
		return fmt.Errorf("%w %v: %w", ErrFetch, coordinate, ErrEmptyPayload)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("%w %v: syncing temp file: %w", ErrFetch, coordinate, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w %v: closing temp file: %w", ErrFetch, coordinate, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("%w %v: setting permissions: %w", ErrFetch, coordinate, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("%w %v: renaming into place: %w", ErrFetch, coordinate, err)
	}

	success = true
	c.logger.Info("input cached",
		"year", coordinate.Year,
		"day", coordinate.Day,
		"bytes", written,
	)
	return nil
}

// Size returns the cached length of coordinate. The boolean is false
// when the input is not cached; that is not an error.
func (c *Cache) Size(coordinate calendar.Coordinate) (int64, bool, error) {
	if !coordinate.IsInput() {
		return 0, false, fmt.Errorf("%v: %w", coordinate, ErrNotInput)
	}
	info, err := os.Stat(c.Path(coordinate))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("inspecting cached %v: %w", coordinate, err)
	}
	return info.Size(), true, nil
}

// Digest returns the hex BLAKE3-256 digest of the cached input at
// coordinate. The boolean is false when the input is not cached.
func (c *Cache) Digest(coordinate calendar.Coordinate) (string, bool, error) {
	if !coordinate.IsInput() {
		return "", false, fmt.Errorf("%v: %w", coordinate, ErrNotInput)
	}
	file, err := os.Open(c.Path(coordinate))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("opening cached %v: %w", coordinate, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", false, fmt.Errorf("hashing cached %v: %w", coordinate, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), true, nil
}
