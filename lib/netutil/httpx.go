// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body I/O for aocfs.
//
// CopyResponse streams a response body into a destination writer and
// fails, rather than truncating, when the body exceeds a caller-chosen
// limit. A truncated puzzle input written to the cache would be served
// forever, so overflow is an error.
//
// ErrorBody reads a short diagnostic snippet from an error response for
// inclusion in error messages.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxErrorBodySize bounds how much of an error response is kept for
// diagnostics.
const MaxErrorBodySize int64 = 512

// ErrBodyTooLarge is returned by CopyResponse when the body exceeds
// the limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// CopyResponse copies body into dst, reading at most limit bytes.
// Returns the number of bytes written. If the body holds more than
// limit bytes, the bytes up to the limit are still written and
// ErrBodyTooLarge is returned; the caller is expected to discard dst.
func CopyResponse(dst io.Writer, body io.Reader, limit int64) (int64, error) {
	written, err := io.Copy(dst, io.LimitReader(body, limit))
	if err != nil {
		return written, fmt.Errorf("reading response body: %w", err)
	}
	if written == limit {
		// Probe for one more byte to distinguish "exactly limit"
		// from "more than limit".
		var probe [1]byte
		n, _ := io.ReadFull(body, probe[:])
		if n > 0 {
			return written, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
		}
	}
	return written, nil
}

// ErrorBody reads an HTTP error response body and returns a trimmed
// snippet of at most MaxErrorBodySize bytes for diagnostic messages.
// Read errors are silently ignored; a partial or empty body is still
// useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return strings.TrimSpace(string(data))
}
