// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/aocfs/lib/secret"
)

// maxSealedSize bounds the ciphertext read. A session token is well
// under a kilobyte; anything this large is the wrong file.
const maxSealedSize = 64 << 10

// DecryptFile decrypts the age file at ciphertextPath with the
// identities in identityPath (an age identity file: one
// AGE-SECRET-KEY-1... per line, # comments allowed). The plaintext is
// trimmed of surrounding whitespace and returned in a secret.Buffer the
// caller must Close.
func DecryptFile(ciphertextPath, identityPath string) (*secret.Buffer, error) {
	identities, err := readIdentities(identityPath)
	if err != nil {
		return nil, err
	}

	ciphertext, err := os.ReadFile(ciphertextPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed file: %w", err)
	}
	if len(ciphertext) > maxSealedSize {
		return nil, fmt.Errorf("sealed file %s is larger than %d bytes", ciphertextPath, maxSealedSize)
	}

	return Decrypt(ciphertext, identities...)
}

// Decrypt decrypts binary or armored age ciphertext with any of the
// given identities and returns the trimmed plaintext.
func Decrypt(ciphertext []byte, identities ...age.Identity) (*secret.Buffer, error) {
	var source io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimSpace(ciphertext), []byte(armor.Header)) {
		source = armor.NewReader(bytes.NewReader(bytes.TrimSpace(ciphertext)))
	}

	reader, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(io.LimitReader(reader, maxSealedSize))
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	defer secret.Zero(plaintext)

	trimmed := bytes.TrimSpace(plaintext)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("sealed file decrypts to an empty secret")
	}
	return secret.NewFromBytes(trimmed)
}

func readIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening age identity file: %w", err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("parsing age identity file %s: %w", path, err)
	}
	return identities, nil
}
