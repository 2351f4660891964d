// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed decrypts age-encrypted session token files.
//
// Keeping the archive session cookie in plaintext on disk is the common
// setup, but users who already manage an age identity can store the
// token encrypted instead:
//
//	printf '%s' "$TOKEN" | age -r age1... -o session.age
//
// and point archive.session_file at session.age with
// archive.age_identity_file naming the identity file. [DecryptFile]
// accepts binary and ASCII-armored ciphertext and returns the trimmed
// plaintext in a [secret.Buffer].
//
// Depends on filippo.io/age and lib/secret.
package sealed
