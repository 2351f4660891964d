// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for aocfs packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used. Everything else runs on a fake clock.
//
// [RequireFUSE] skips a test when the kernel FUSE device is not usable,
// and [MountDir] creates a fresh mountpoint outside the test's temp
// directory so that an unmount failure cannot wedge t.TempDir cleanup.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no aocfs-internal dependencies.
package testutil
