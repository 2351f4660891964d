// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse serves a [puzzlefs.Engine] to the kernel through
// go-fuse. It owns the protocol details the engine does not know
// about: inode numbers, errno values, open-file handles, mount
// options, and the read-only guarantee.
package fuse

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/aocfs/lib/calendar"
	"github.com/bureau-foundation/aocfs/lib/puzzlefs"
)

// FsName is the filesystem name shown in the mount table.
const FsName = "aocfs"

// baseMountOptions are passed on every mount. The tree is read-only
// text: nothing in it is executable, setuid, or a device.
var baseMountOptions = []string{
	"ro",
	"noexec",
	"nosuid",
	"nodev",
	"noatime",
	"default_permissions",
}

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Engine answers every filesystem request. Required.
	Engine *puzzlefs.Engine

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// AllowRoot permits root, in addition to the mounting user, to
	// access the mount. Mutually exclusive with AllowOther.
	AllowRoot bool

	// AutoUnmount asks fusermount to unmount when the process
	// exits, even if it is killed.
	AutoUnmount bool

	// Debug logs every FUSE request to stderr.
	Debug bool

	// UID and GID own every entry. When both are zero they default
	// to the mounting process's identity.
	UID uint32
	GID uint32

	// Logger receives diagnostic messages. If nil, errors are
	// logged to stderr.
	Logger *slog.Logger
}

// mountOptions returns the -o options for this mount.
func (options *Options) mountOptions() []string {
	mountOptions := append([]string(nil), baseMountOptions...)
	if options.AllowRoot {
		mountOptions = append(mountOptions, "allow_root")
	}
	if options.AutoUnmount {
		mountOptions = append(mountOptions, "auto_unmount")
	}
	return mountOptions
}

// Mount mounts the puzzle filesystem at the configured mountpoint.
// The caller must call Unmount on the returned Server when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if options.AllowOther && options.AllowRoot {
		return nil, fmt.Errorf("allow-other and allow-root are mutually exclusive")
	}
	if options.UID == 0 && options.GID == 0 {
		options.UID = uint32(os.Getuid())
		options.GID = uint32(os.Getgid())
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	filesystem := &filesystem{
		engine:  options.Engine,
		handles: puzzlefs.NewHandleTable(),
		owner:   fuse.Owner{Uid: options.UID, Gid: options.GID},
		logger:  options.Logger,
	}
	root := &node{filesystem: filesystem, id: calendar.RootID}

	// Entry and attribute timeouts come from the engine per reply;
	// these are the fallbacks for replies that carry none.
	entryTimeout := puzzlefs.DefaultAttrValidity
	attrTimeout := puzzlefs.DefaultAttrValidity
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		UID:             options.UID,
		GID:             options.GID,
		MountOptions: fuse.MountOptions{
			FsName:     FsName,
			Name:       FsName,
			AllowOther: options.AllowOther,
			Options:    options.mountOptions(),
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("puzzle filesystem mounted", "mountpoint", options.Mountpoint)
	return server, nil
}
