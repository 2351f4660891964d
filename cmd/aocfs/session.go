// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bureau-foundation/aocfs/lib/config"
	"github.com/bureau-foundation/aocfs/lib/sealed"
	"github.com/bureau-foundation/aocfs/lib/secret"
)

const sessionPrompt = "Advent of Code session token: "

// loadSession returns the session token from whichever source the
// archive config names: inline, a plain file, an age-encrypted file, or
// a terminal prompt. The caller closes the buffer.
func loadSession(archiveConfig config.ArchiveConfig, terminal *os.File, prompt io.Writer) (*secret.Buffer, error) {
	switch {
	case archiveConfig.Session != "":
		token := strings.TrimSpace(archiveConfig.Session)
		if token == "" {
			return nil, fmt.Errorf("archive.session is blank")
		}
		return secret.NewFromBytes([]byte(token))

	case archiveConfig.SessionFile == config.SessionPrompt:
		return secret.ReadFromTerminal(int(terminal.Fd()), sessionPrompt, prompt)

	case archiveConfig.AgeIdentityFile != "":
		return sealed.DecryptFile(archiveConfig.SessionFile, archiveConfig.AgeIdentityFile)

	case archiveConfig.SessionFile != "":
		return secret.ReadFromPath(archiveConfig.SessionFile)

	default:
		return nil, fmt.Errorf("no session source configured")
	}
}
