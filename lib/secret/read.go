// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadFromPath reads a secret from a file, trimming leading and
// trailing whitespace. Returns an error if nothing remains after
// trimming.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buffer, err := fromTrimmed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buffer, nil
}

// ReadFromTerminal prints prompt to promptOut and reads one line from
// the terminal on file descriptor fd with echo disabled.
func ReadFromTerminal(fd int, prompt string, promptOut io.Writer) (*Buffer, error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("no terminal available for an interactive prompt")
	}
	fmt.Fprint(promptOut, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(promptOut)
	if err != nil {
		return nil, fmt.Errorf("reading from terminal: %w", err)
	}
	return fromTrimmed(data)
}

// fromTrimmed moves the trimmed content of data into a Buffer and zeros
// all of data.
func fromTrimmed(data []byte) (*Buffer, error) {
	defer Zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return NewFromBytes(trimmed)
}
