// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the aocfs configuration file.
//
// Configuration is loaded from a single file specified by:
//   - the --config flag passed to aocfs, or
//   - the AOCFS_CONFIG environment variable
//
// There is no discovery and no merging of several files. The format is
// chosen by extension: .yaml or .yml, .toml, and .json or .jsonc (JSON
// with comments and trailing commas). Unknown keys are rejected in every
// format so a typo cannot silently fall back to a default.
//
// Example (YAML):
//
//	archive:
//	  username: alice
//	  session_file: ${HOME}/.config/aocfs/session.age
//	  age_identity_file: ${HOME}/.config/age/key.txt
//	cache:
//	  dir: ${HOME}/.cache/aocfs
//	mount:
//	  auto_unmount: true
//
// String values may reference ${VAR} or ${VAR:-default}; nothing else
// is read from the environment.
package config
