// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"testing"
)

// fuseDevice is the kernel FUSE character device.
const fuseDevice = "/dev/fuse"

// fusermountNames are the setuid mount helpers an unprivileged go-fuse
// mount execs, newest first.
var fusermountNames = []string{"fusermount3", "fusermount"}

// RequireFUSE skips the test when FUSE mounts cannot work here: the
// device is missing or cannot be opened, or no fusermount helper is on
// PATH.
func RequireFUSE(t *testing.T) {
	t.Helper()
	device, err := os.OpenFile(fuseDevice, os.O_RDWR, 0)
	if err != nil {
		t.Skipf("FUSE not available: %v", err)
	}
	device.Close()
	if _, err := lookFusermount(); err != nil {
		t.Skipf("FUSE not available: %v", err)
	}
}

// lookFusermount returns the path of the first fusermount helper found
// on PATH.
func lookFusermount() (string, error) {
	for _, name := range fusermountNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no fusermount helper on PATH (tried %v)", fusermountNames)
}

// MountDir creates an empty directory to mount a test filesystem on.
//
// The directory lives directly in /tmp rather than under t.TempDir():
// if a test fails while the filesystem is still mounted, RemoveAll on
// t.TempDir would descend into the mount. The returned directory is
// removed (non-recursively) when the test completes, after any
// unmount registered later with t.Cleanup has run.
func MountDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "aocfs-mount-*")
	if err != nil {
		t.Fatalf("creating mount directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Remove(directory)
	})
	return directory
}
