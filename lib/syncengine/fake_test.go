// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/lib/secret"
	"github.com/bureau-foundation/mxchat/lib/testutil"
	"github.com/bureau-foundation/mxchat/messaging"
)

// syncCall is one Sync invocation observed by fakeSession. The test
// answers it by sending on reply.
type syncCall struct {
	options messaging.SyncOptions
	reply   chan syncResult
}

type syncResult struct {
	response *messaging.SyncResponse
	err      error
}

// fakeSession scripts the homeserver. Sync blocks until the test
// answers through the calls channel.
type fakeSession struct {
	userID ref.UserID
	calls  chan syncCall

	whoAmIErr error

	mu        sync.Mutex
	closed    bool
	loggedOut bool
	syncs     int
	sent      []sentMessage
	roomState map[ref.RoomID][]messaging.Event
}

type sentMessage struct {
	roomID  ref.RoomID
	content schema.MessageContent
}

func newFakeSession(userID string) *fakeSession {
	return &fakeSession{
		userID:    ref.MustParseUserID(userID),
		calls:     make(chan syncCall),
		roomState: make(map[ref.RoomID][]messaging.Event),
	}
}

func (s *fakeSession) UserID() ref.UserID { return s.userID }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("fake session: logout after close")
	}
	s.loggedOut = true
	return nil
}

func (s *fakeSession) isLoggedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedOut
}

func (s *fakeSession) syncCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncs
}

func (s *fakeSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	if s.whoAmIErr != nil {
		return ref.UserID{}, s.whoAmIErr
	}
	return s.userID, nil
}

func (s *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	s.mu.Lock()
	s.syncs++
	s.mu.Unlock()

	call := syncCall{options: options, reply: make(chan syncResult, 1)}
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case result := <-call.reply:
		return result.response, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSession) SendMessage(ctx context.Context, roomID ref.RoomID, content schema.MessageContent) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{roomID: roomID, content: content})
	return ref.MustParseEventID(fmt.Sprintf("$sent%d", len(s.sent))), nil
}

func (s *fakeSession) GetRoomState(ctx context.Context, roomID ref.RoomID) ([]messaging.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, found := s.roomState[roomID]
	if !found {
		return nil, &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404}
	}
	return events, nil
}

// fakeHomeserver hands out scripted sessions.
type fakeHomeserver struct {
	mu sync.Mutex

	// loginSessions are returned by successive Login calls.
	loginSessions []*fakeSession
	loginErr      error
	logins        []messaging.LoginRequest

	tokenSession *fakeSession
	tokenUses    int
}

func (h *fakeHomeserver) Login(ctx context.Context, request messaging.LoginRequest) (messaging.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logins = append(h.logins, request)
	if h.loginErr != nil {
		return nil, h.loginErr
	}
	if len(h.loginSessions) == 0 {
		return nil, errors.New("fake homeserver: no scripted login session")
	}
	session := h.loginSessions[0]
	h.loginSessions = h.loginSessions[1:]
	return session, nil
}

func (h *fakeHomeserver) SessionFromToken(token *secret.Buffer) (messaging.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokenUses++
	if h.tokenSession == nil {
		return nil, errors.New("fake homeserver: no scripted token session")
	}
	return h.tokenSession, nil
}

func (h *fakeHomeserver) loginCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.logins)
}

// recorder captures every notification in emission order.
type recorder struct {
	mu     sync.Mutex
	events []string
	errors []error
	states []StateEvent
}

func (r *recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func (r *recorder) count(prefix string) int {
	count := 0
	for _, event := range r.snapshot() {
		if len(event) >= len(prefix) && event[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

func testSecret(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating secret: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

// receiveCall waits for the engine's next Sync call.
func receiveCall(t *testing.T, session *fakeSession) syncCall {
	t.Helper()
	return testutil.RequireReceive(t, session.calls, 5*time.Second, "waiting for a sync call")
}

// waitForRun waits for Run to return and yields its error.
func waitForRun(t *testing.T, result <-chan error) error {
	t.Helper()
	return testutil.RequireReceive(t, result, 5*time.Second, "waiting for Run to return")
}

func strPtr(value string) *string { return &value }
