// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/lib/secret"
)

// DirectSession is an authenticated Matrix session.
// It wraps a Client with an access token for making authenticated API calls.
//
// The access token is stored in a secret.Buffer (mmap-backed, locked against
// swap, excluded from core dumps). The caller must call Close when the
// DirectSession is no longer needed.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	deviceID    string

	mu     sync.Mutex
	userID ref.UserID
}

// UserID returns the fully-qualified Matrix user ID (e.g., "@alice:example.org").
func (s *DirectSession) UserID() ref.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// DeviceID returns the device ID for this session. Empty for sessions
// created from a token.
func (s *DirectSession) DeviceID() string {
	return s.deviceID
}

// Close releases the access token memory (zeros, unlocks, unmaps).
// Idempotent.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// WhoAmI validates the access token and returns the user ID. On
// success the session adopts the returned identity.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	if response.UserID.IsZero() {
		return ref.UserID{}, fmt.Errorf("messaging: whoami response carried no user_id")
	}

	s.mu.Lock()
	s.userID = response.UserID
	s.mu.Unlock()
	return response.UserID, nil
}

// Sync performs a sync with the homeserver.
// For the initial sync, leave options.Since empty.
// For long-polling, set options.Timeout; zero asks for an immediate answer.
// The response is validated before it is returned, and events whose
// member-supplied content does not decode are dropped with a warning.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	query.Set("timeout", strconv.FormatInt(options.Timeout.Milliseconds(), 10))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	if err := response.Validate(); err != nil {
		return nil, fmt.Errorf("messaging: invalid sync response: %w", err)
	}
	response.DropMalformedContent(s.client.logger)
	return &response, nil
}

// SendMessage sends an m.room.message event to a room.
// Returns the event ID of the sent message.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content schema.MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, schema.EventTypeRoomMessage, content)
}

// SendEvent sends an event of any type to a room.
// Uses Matrix's idempotent PUT with a random transaction ID.
// Returns the event ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.String()),
		url.PathEscape(uuid.NewString()),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send event to %q failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// GetRoomState fetches all current state events from a room.
// Returns the full event objects including type, state_key, sender, etc.
func (s *DirectSession) GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state", url.PathEscape(roomID.String()))

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get room state for %q failed: %w", roomID, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room state response: %w", err)
	}
	for index := range events {
		if err := events[index].validate(); err != nil {
			return nil, fmt.Errorf("messaging: room state for %q: event %d: %w", roomID, index, err)
		}
	}
	return dropMalformed(events, "rooms."+roomID.String()+".state", s.client.logger), nil
}

// Logout invalidates the access token on the homeserver. The session
// must still be closed to release the local token memory.
func (s *DirectSession) Logout(ctx context.Context) error {
	_, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/logout", s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: logout failed: %w", err)
	}
	return nil
}
