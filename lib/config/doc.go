// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the chat client configuration.
//
// Configuration is loaded from a single file specified by either the
// MXCHAT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search. YAML is the native format; files ending in .json or .jsonc
// are accepted too, with comments and trailing commas stripped before
// decoding.
//
// Variable expansion is performed on the credential file paths after
// loading: ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- account, sync timing, and log level
//   - [Default] -- returns a Config with the sync and log defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [AccountConfig.LoadCredentials] -- moves the password or token
//     into protected memory
package config
