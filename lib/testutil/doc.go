// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never call
// time.After themselves. They are the only place in the test suite
// that uses wall-clock timeouts; everything else runs on
// [github.com/bureau-foundation/mxchat/lib/clock.FakeClock].
//
// All helpers call t.Fatalf on failure.
package testutil
