// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
)

// Session is the authenticated homeserver surface the sync engine
// drives. *DirectSession is the production implementation.
type Session interface {
	// UserID returns the session's Matrix user ID. Zero for a session
	// created from a bare token until WhoAmI has succeeded.
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// Sync performs one (incremental, if options.Since is set) sync.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)

	// SendMessage sends an m.room.message event. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content schema.MessageContent) (ref.EventID, error)

	// Logout invalidates the access token and retires its device on
	// the homeserver. Close must still be called afterwards.
	Logout(ctx context.Context) error

	// GetRoomState fetches all current state events from a room.
	GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
