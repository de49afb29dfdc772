// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the homeserver transport for the chat client: a
// thin wrapper over the Matrix client-server API covering exactly the
// calls the sync engine and its consumers make.
//
// [Client] is unauthenticated. It holds the homeserver URL and HTTP
// transport and produces authenticated sessions, either by password
// login ([Client.Login]) or from an existing access token
// ([Client.SessionFromToken]).
//
// [Session] is the authenticated surface: identity check (WhoAmI),
// incremental sync with an optional long-poll timeout, message send,
// full room state, joined rooms, and logout. [*DirectSession] is the
// only implementation; the interface exists so the sync engine can be
// driven by a scripted fake in tests. The access token lives in
// mmap-backed secret.Buffer memory; callers must Close the session.
//
// All API errors are returned as [*MatrixError] with the Matrix error
// code and HTTP status. When the homeserver reports that the access
// token is missing or no longer valid, the error additionally matches
// [ErrReauthRequired] under errors.Is, which the sync engine treats as
// a request to authenticate again rather than a transient failure.
//
// Sync payloads are checked by [SyncResponse.Validate] before they are
// returned, so events that are missing required fields surface as a
// sync error at this boundary instead of reaching the state reducer.
package messaging
