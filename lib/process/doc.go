// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for aocfs. It
// centralizes the raw I/O that happens before the structured logger
// exists or after run() has returned: reporting a fatal error to
// stderr and choosing the exit status.
package process
