// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of mxchat is running, for
// --version output and the User-Agent header.
//
// Release builds inject [GitCommit], [GitDirty], [BuildTime], and
// [Version] with -ldflags -X. Builds made with a plain `go build` or
// `go install` inside a checkout fall back to the vcs.* settings the
// go command stamps into the binary.
package version
