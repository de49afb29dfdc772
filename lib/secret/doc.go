// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds account credentials (passwords and access
// tokens) in memory that is kept off the Go heap.
//
// [Buffer] allocates memory via mmap(MAP_ANONYMOUS), locks it into
// physical RAM via mlock (preventing swap), and marks it excluded from
// core dumps via madvise(MADV_DONTDUMP). On Close, the memory is
// zeroed, unlocked, and unmapped. Because the memory lives outside the
// Go heap, the garbage collector cannot copy or relocate it.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [NewFromString] -- copies a string (flags and config values)
//   - [ReadFile] -- reads the first line of a token or password file
//     that only its owner can read
//   - [Buffer.Clone] -- an independent copy with its own lifetime
//
// [Buffer.String] produces a heap copy for API boundaries (the login
// request body, the Authorization header). After Close, any access
// panics. Close is idempotent.
package secret
