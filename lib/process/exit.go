// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUsage marks errors caused by bad command-line usage. Fatal exits
// with status 2 for them, as flag parsers conventionally do.
var ErrUsage = errors.New("usage")

// Fatal writes "error: err" to stderr and exits. Use it in main() for
// errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err to w and returns the exit status for it.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	if errors.Is(err, ErrUsage) {
		return 2
	}
	return 1
}
