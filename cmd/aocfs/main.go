// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/aocfs/lib/archive"
	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/clock"
	"github.com/bureau-foundation/aocfs/lib/config"
	"github.com/bureau-foundation/aocfs/lib/inputcache"
	"github.com/bureau-foundation/aocfs/lib/process"
	"github.com/bureau-foundation/aocfs/lib/puzzlefs"
	"github.com/bureau-foundation/aocfs/lib/puzzlefs/fuse"
	"github.com/bureau-foundation/aocfs/lib/version"
)

// defaultConfigPath is used when neither --config nor AOCFS_CONFIG is
// set.
const defaultConfigPath = "aocfs.yaml"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// flags are the command-line options. Mount toggles here can only turn
// on what the config file leaves off.
type flags struct {
	configPath  string
	autoUnmount bool
	allowRoot   bool
	allowOther  bool
	debug       bool
	logLevel    string
	showVersion bool
}

func parseFlags(arguments []string) (*flags, []string, error) {
	var parsed flags
	flagSet := pflag.NewFlagSet("aocfs", pflag.ContinueOnError)
	flagSet.StringVarP(&parsed.configPath, "config", "c", "", "config file (default: $"+config.EnvironmentVariable+", then "+defaultConfigPath+")")
	flagSet.BoolVar(&parsed.autoUnmount, "auto-unmount", false, "unmount automatically when aocfs exits")
	flagSet.BoolVar(&parsed.allowRoot, "allow-root", false, "allow root to access the filesystem")
	flagSet.BoolVar(&parsed.allowOther, "allow-other", false, "allow all users to access the filesystem")
	flagSet.BoolVar(&parsed.debug, "debug", false, "log every FUSE request")
	flagSet.StringVar(&parsed.logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: aocfs [flags] <mountpoint>\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(arguments); err != nil {
		return nil, nil, err
	}
	return &parsed, flagSet.Args(), nil
}

// resolveConfigPath picks the config file: --config, then
// AOCFS_CONFIG, then the default.
func (f *flags) resolveConfigPath() string {
	if f.configPath != "" {
		return f.configPath
	}
	if fromEnvironment := os.Getenv(config.EnvironmentVariable); fromEnvironment != "" {
		return fromEnvironment
	}
	return defaultConfigPath
}

// applyTo turns on the mount toggles set on the command line.
func (f *flags) applyTo(mount *config.MountConfig) {
	mount.AutoUnmount = mount.AutoUnmount || f.autoUnmount
	mount.AllowRoot = mount.AllowRoot || f.allowRoot
	mount.AllowOther = mount.AllowOther || f.allowOther
	mount.Debug = mount.Debug || f.debug
}

func run() error {
	parsed, arguments, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", process.ErrUsage, err)
	}
	if parsed.showVersion {
		version.Print("aocfs")
		return nil
	}
	if len(arguments) != 1 {
		return fmt.Errorf("%w: expected exactly one mountpoint, got %d arguments", process.ErrUsage, len(arguments))
	}
	mountpoint := arguments[0]

	level, err := parseLevel(parsed.logLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", process.ErrUsage, err)
	}
	logger := newLogger(level)

	cfg, err := config.LoadFile(parsed.resolveConfigPath())
	if err != nil {
		return err
	}
	parsed.applyTo(&cfg.Mount)
	if cfg.Mount.AllowOther && cfg.Mount.AllowRoot {
		return fmt.Errorf("%w: --allow-other and --allow-root are mutually exclusive", process.ErrUsage)
	}

	// The calendar rules were validated with the config; this is the
	// point where a bad offset stops startup.
	policy, err := calendar.NewPolicy(cfg.Rules(), clock.Real())
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}

	session, err := loadSession(cfg.Archive, os.Stdin, os.Stderr)
	if err != nil {
		return fmt.Errorf("loading session token: %w", err)
	}
	defer session.Close()

	client, err := archive.NewClient(archive.Options{
		BaseURL:   cfg.Archive.BaseURL,
		Session:   session,
		UserAgent: cfg.Archive.UserAgent,
		Timeout:   cfg.Timeout(),
		Logger:    logger.With("component", "archive"),
	})
	if err != nil {
		return fmt.Errorf("creating archive client: %w", err)
	}

	cache, err := inputcache.New(inputcache.Options{
		Root:    cfg.CacheDir(),
		Fetcher: client,
		Logger:  logger.With("component", "cache"),
	})
	if err != nil {
		return err
	}

	engine, err := puzzlefs.NewEngine(puzzlefs.Options{
		Policy:  policy,
		Content: cache,
		Logger:  logger.With("component", "engine"),
	})
	if err != nil {
		return err
	}

	server, err := fuse.Mount(fuse.Options{
		Mountpoint:  mountpoint,
		Engine:      engine,
		AllowOther:  cfg.Mount.AllowOther,
		AllowRoot:   cfg.Mount.AllowRoot,
		AutoUnmount: cfg.Mount.AutoUnmount,
		Debug:       cfg.Mount.Debug,
		Logger:      logger.With("component", "fuse"),
	})
	if err != nil {
		return err
	}

	unlock := policy.Unlocked()
	logger.Info("serving puzzle archive",
		"mountpoint", mountpoint,
		"cache", cache.Root(),
		"latest_year", unlock.Year,
		"latest_day", unlock.Day,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("unmounting", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed", "mountpoint", mountpoint, "error", err)
		}
	}()

	server.Wait()
	return nil
}

// parseLevel maps a --log-level value to a slog level.
func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
