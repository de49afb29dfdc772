// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/clock"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/lib/testutil"
	"github.com/bureau-foundation/mxchat/messaging"
)

const testInterval = time.Second

type testHarness struct {
	engine   *Engine
	clock    *clock.FakeClock
	recorder *recorder
	cancel   context.CancelFunc
	result   chan error
}

func newTestEngine(t *testing.T, homeserver *fakeHomeserver, account Account) *testHarness {
	t.Helper()
	fakeClock := clock.Fake(time.Unix(1_700_000_000, 0))
	engine, err := New(Config{
		Account:      account,
		Homeserver:   homeserver,
		Clock:        fakeClock,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		SyncInterval: testInterval,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	events := &recorder{}
	engine.OnConnected(func() { events.record("connected") })
	engine.OnRoom(func(room *chatstate.Room) { events.record("room %s %s", room.ID(), room.Name()) })
	engine.OnMessage(func(message *chatstate.Message) {
		events.record("message %s %s", message.Room(), message.Body())
	})
	engine.OnError(func(err error) {
		events.mu.Lock()
		events.errors = append(events.errors, err)
		events.mu.Unlock()
	})
	engine.OnStateChange(func(event StateEvent) {
		events.mu.Lock()
		events.states = append(events.states, event)
		events.mu.Unlock()
	})

	return &testHarness{engine: engine, clock: fakeClock, recorder: events}
}

// start launches Run and registers cleanup that stops it.
func (h *testHarness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.result = make(chan error, 1)
	go func() { h.result <- h.engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, h.engine.done, 5*time.Second, "engine did not stop")
	})
}

// settle waits until the engine is parked in a wait state.
func (h *testHarness) settle() {
	h.clock.WaitForTimers(1)
}

// tick ends the current wait.
func (h *testHarness) tick() {
	h.clock.Advance(testInterval)
}

func passwordAccount(t *testing.T) Account {
	return Account{
		Username:   "alice",
		Password:   testSecret(t, "hunter2"),
		DeviceName: "test-device",
	}
}

func nameEvent(name string) messaging.Event {
	return messaging.Event{
		Type:           schema.EventTypeRoomName,
		StateKey:       strPtr(""),
		OriginServerTS: 1,
		Content:        map[string]any{"name": name},
	}
}

func aliasEvent(alias string) messaging.Event {
	return messaging.Event{
		Type:           schema.EventTypeRoomCanonicalAlias,
		StateKey:       strPtr(""),
		OriginServerTS: 1,
		Content:        map[string]any{"alias": alias},
	}
}

func textEvent(eventID, sender string, timestamp int64, body string) messaging.Event {
	return messaging.Event{
		EventID:        ref.MustParseEventID(eventID),
		Type:           schema.EventTypeRoomMessage,
		Sender:         ref.MustParseUserID(sender),
		OriginServerTS: timestamp,
		Content:        map[string]any{"msgtype": schema.MsgTypeText, "body": body},
	}
}

// batch builds a sync response joining the given rooms.
func batch(nextBatch string, rooms map[string]messaging.JoinedRoom) *messaging.SyncResponse {
	response := &messaging.SyncResponse{
		NextBatch: nextBatch,
		Rooms:     messaging.RoomsSection{Join: make(map[ref.RoomID]messaging.JoinedRoom)},
	}
	for roomID, room := range rooms {
		response.Rooms.Join[ref.MustParseRoomID(roomID)] = room
	}
	return response
}

func generalRoom() messaging.JoinedRoom {
	return messaging.JoinedRoom{
		State: messaging.StateSection{Events: []messaging.Event{nameEvent("General")}},
		Timeline: messaging.TimelineSection{Events: []messaging.Event{
			textEvent("$e1", "@alice:example.org", 1000, "hi"),
		}},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{
			name:    "no credentials",
			account: Account{Username: "alice"},
			want:    "token or a password",
		},
		{
			name:    "password without username",
			account: Account{Password: testSecret(t, "pw")},
			want:    "username",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(Config{Account: test.account, Homeserver: &fakeHomeserver{}})
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("New() error = %v, want mention of %q", err, test.want)
			}
		})
	}

	t.Run("homeserver URL must be absolute", func(t *testing.T) {
		_, err := New(Config{Account: Account{Token: testSecret(t, "tok"), URL: "not a url"}})
		if err == nil {
			t.Fatal("New() accepted a relative homeserver URL")
		}
	})
}

func TestPasswordLoginAndInitialSync(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	homeserver := &fakeHomeserver{loginSessions: []*fakeSession{session}}
	harness := newTestEngine(t, homeserver, passwordAccount(t))

	if state := harness.engine.State(); state != StateAuthenticating {
		t.Fatalf("initial state = %q, want %q", state, StateAuthenticating)
	}
	harness.start(t)

	call := receiveCall(t, session)
	if call.options.Since != "" {
		t.Errorf("first sync since = %q, want empty", call.options.Since)
	}
	call.reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{"!r1": generalRoom()})}
	harness.settle()

	if got := homeserver.logins; len(got) != 1 || got[0].Username != "alice" || got[0].DeviceName != "test-device" {
		t.Errorf("logins = %+v", got)
	}
	if identity := harness.engine.Identity(); identity.String() != "@alice:example.org" {
		t.Errorf("Identity() = %q", identity)
	}
	if cursor := harness.engine.Cursor(); cursor != "s1" {
		t.Errorf("Cursor() = %q, want s1", cursor)
	}
	if state := harness.engine.State(); state != StateSyncWait {
		t.Errorf("State() = %q, want %q", state, StateSyncWait)
	}

	room := harness.engine.GetRoomByName("!r1")
	if room == nil {
		t.Fatal("GetRoomByName(!r1) = nil")
	}
	if room.Name() != "General" {
		t.Errorf("room name = %q, want General", room.Name())
	}
	if room.Messages().Len() != 1 {
		t.Errorf("room has %d messages, want 1", room.Messages().Len())
	}

	// The room is announced fully seeded, before its messages, and the
	// connected notification follows the whole batch.
	want := []string{"room !r1 General", "message !r1 hi", "connected"}
	if got := harness.recorder.snapshot(); !slices.Equal(got, want) {
		t.Errorf("notifications = %q, want %q", got, want)
	}

	var transitions []string
	harness.recorder.mu.Lock()
	for _, event := range harness.recorder.states {
		transitions = append(transitions, event.String())
	}
	harness.recorder.mu.Unlock()
	wantTransitions := []string{
		"authenticating -> authenticating.password",
		"authenticating.password -> sync",
		"sync -> sync.wait",
	}
	if !slices.Equal(transitions, wantTransitions) {
		t.Errorf("transitions = %q, want %q", transitions, wantTransitions)
	}
}

func TestCursorAdvancesAndConnectedOnce(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	for index, next := range []string{"s1", "s2", "s3"} {
		call := receiveCall(t, session)
		wantSince := ""
		if index > 0 {
			wantSince = []string{"s1", "s2"}[index-1]
		}
		if call.options.Since != wantSince {
			t.Errorf("sync %d since = %q, want %q", index, call.options.Since, wantSince)
		}
		call.reply <- syncResult{response: batch(next, nil)}
		harness.settle()
		harness.tick()
	}
	receiveCall(t, session).reply <- syncResult{response: batch("s4", nil)}
	harness.settle()

	if count := harness.recorder.count("connected"); count != 1 {
		t.Errorf("connected fired %d times, want 1", count)
	}
	if cursor := harness.engine.Cursor(); cursor != "s4" {
		t.Errorf("Cursor() = %q, want s4", cursor)
	}
}

func TestConnectedOnceWithEmptyCursor(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session).reply <- syncResult{response: batch("", nil)}
	harness.settle()
	harness.tick()
	receiveCall(t, session).reply <- syncResult{response: batch("s1", nil)}
	harness.settle()

	if count := harness.recorder.count("connected"); count != 1 {
		t.Errorf("connected fired %d times, want 1", count)
	}
}

func TestTransientSyncFailureRetries(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session).reply <- syncResult{response: batch("s1", nil)}
	harness.settle()
	harness.tick()

	receiveCall(t, session).reply <- syncResult{err: errors.New("connection reset")}
	harness.settle()

	if state := harness.engine.State(); state != StateSyncFailed {
		t.Fatalf("State() = %q, want %q", state, StateSyncFailed)
	}
	if err := harness.engine.LastError(); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("LastError() = %v", err)
	}
	if count := harness.recorder.errorCount(); count != 0 {
		t.Errorf("transient failure emitted %d error notifications", count)
	}

	// Nothing happens until the interval elapses.
	if count := session.syncCount(); count != 2 {
		t.Fatalf("sync calls before retry interval = %d, want 2", count)
	}
	harness.tick()

	call := receiveCall(t, session)
	if call.options.Since != "s1" {
		t.Errorf("retry since = %q, want s1", call.options.Since)
	}
	call.reply <- syncResult{response: batch("s2", nil)}
	harness.settle()
	if cursor := harness.engine.Cursor(); cursor != "s2" {
		t.Errorf("Cursor() = %q, want s2", cursor)
	}
}

func TestBadTokenFails(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	session.whoAmIErr = &messaging.MatrixError{Code: messaging.ErrCodeUnknownToken, StatusCode: 401}
	homeserver := &fakeHomeserver{tokenSession: session}
	harness := newTestEngine(t, homeserver, Account{Token: testSecret(t, "stale")})
	harness.start(t)

	err := waitForRun(t, harness.result)
	var failure *FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *FailureError", err)
	}
	if failure.State != StateAuthenticatingToken {
		t.Errorf("failure state = %q, want %q", failure.State, StateAuthenticatingToken)
	}
	if !messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
		t.Errorf("failure does not wrap the homeserver error: %v", err)
	}
	if !strings.Contains(err.Error(), "matrix client failure") {
		t.Errorf("failure message = %q", err.Error())
	}

	if count := harness.recorder.errorCount(); count != 1 {
		t.Errorf("error notifications = %d, want 1", count)
	}
	if state := harness.engine.State(); state != StateFailed || !state.Terminal() {
		t.Errorf("State() = %q, want terminal %q", state, StateFailed)
	}
	if !session.isClosed() {
		t.Error("rejected token session was not closed")
	}
	if homeserver.loginCount() != 0 {
		t.Error("password login attempted without a password")
	}
	if count := session.syncCount(); count != 0 {
		t.Errorf("sync called %d times with a rejected token", count)
	}
}

func TestPasswordLoginFailure(t *testing.T) {
	homeserver := &fakeHomeserver{
		loginErr: &messaging.MatrixError{Code: messaging.ErrCodeForbidden, StatusCode: 403},
	}
	harness := newTestEngine(t, homeserver, passwordAccount(t))
	harness.start(t)

	err := waitForRun(t, harness.result)
	var failure *FailureError
	if !errors.As(err, &failure) || failure.State != StateAuthenticatingPassword {
		t.Fatalf("Run() error = %v, want failure in %q", err, StateAuthenticatingPassword)
	}
	if count := harness.recorder.errorCount(); count != 1 {
		t.Errorf("error notifications = %d, want 1", count)
	}

	// The error notification is the last thing emitted.
	harness.recorder.mu.Lock()
	states := harness.recorder.states
	harness.recorder.mu.Unlock()
	if last := states[len(states)-1]; last.New != StateFailed || last.Err == nil {
		t.Errorf("last transition = %v, want failure transition", last)
	}

	if err := harness.engine.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
	if err := harness.engine.submit(context.Background(), nil); !errors.Is(err, ErrStopped) {
		t.Errorf("submit after stop = %v, want ErrStopped", err)
	}
}

func TestReauthenticationKeepsCursor(t *testing.T) {
	first := newFakeSession("@alice:example.org")
	second := newFakeSession("@alice:example.org")
	homeserver := &fakeHomeserver{
		tokenSession:  first,
		loginSessions: []*fakeSession{second},
	}
	account := passwordAccount(t)
	account.Token = testSecret(t, "tok")
	harness := newTestEngine(t, homeserver, account)
	harness.start(t)

	receiveCall(t, first).reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{"!r1": generalRoom()})}
	harness.settle()
	harness.tick()

	rejected := &messaging.MatrixError{Code: messaging.ErrCodeUnknownToken, StatusCode: 401, SoftLogout: true}
	receiveCall(t, first).reply <- syncResult{err: errors.Join(messaging.ErrReauthRequired, rejected)}

	// The rejected token is not retried; the engine logs in with the
	// password and resumes from the same cursor.
	call := receiveCall(t, second)
	if call.options.Since != "s1" {
		t.Errorf("post-reauth since = %q, want s1", call.options.Since)
	}
	call.reply <- syncResult{response: batch("s2", nil)}
	harness.settle()

	if homeserver.loginCount() != 1 {
		t.Errorf("logins = %d, want 1", homeserver.loginCount())
	}
	if !first.isClosed() {
		t.Error("rejected session was not closed")
	}
	if count := harness.recorder.count("connected"); count != 1 {
		t.Errorf("connected fired %d times, want 1", count)
	}
	if count := harness.recorder.errorCount(); count != 0 {
		t.Errorf("reauth emitted %d error notifications", count)
	}
	if harness.engine.GetRoomByName("!r1") == nil {
		t.Error("room state lost across reauthentication")
	}
}

func TestCancelStopsRun(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session)
	harness.cancel()

	if err := waitForRun(t, harness.result); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if !session.isClosed() {
		t.Error("session not closed on shutdown")
	}
	if count := harness.recorder.errorCount(); count != 0 {
		t.Errorf("cancellation emitted %d error notifications", count)
	}
}

func TestShutdownLogsOutPasswordDevice(t *testing.T) {
	tests := []struct {
		name       string
		password   bool
		wantLogout bool
	}{
		{name: "password login", password: true, wantLogout: true},
		{name: "access token", password: false, wantLogout: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			session := newFakeSession("@alice:example.org")
			homeserver := &fakeHomeserver{}
			var account Account
			if test.password {
				homeserver.loginSessions = []*fakeSession{session}
				account = passwordAccount(t)
			} else {
				homeserver.tokenSession = session
				account = Account{Token: testSecret(t, "tok")}
			}
			harness := newTestEngine(t, homeserver, account)
			harness.start(t)

			receiveCall(t, session).reply <- syncResult{response: batch("s1", nil)}
			harness.settle()
			harness.cancel()

			if err := waitForRun(t, harness.result); !errors.Is(err, context.Canceled) {
				t.Errorf("Run() = %v, want context.Canceled", err)
			}
			if got := session.isLoggedOut(); got != test.wantLogout {
				t.Errorf("logged out = %v, want %v", got, test.wantLogout)
			}
			if !session.isClosed() {
				t.Error("session not closed on shutdown")
			}
		})
	}
}

func TestIllegalTransitionPanics(t *testing.T) {
	harness := newTestEngine(t, &fakeHomeserver{}, passwordAccount(t))
	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatal("transition authenticating -> sync did not panic")
		}
		if message, ok := recovered.(string); !ok || !strings.Contains(message, "illegal transition") {
			t.Errorf("panic value = %v", recovered)
		}
	}()
	harness.engine.transition(StateSync, nil)
}

func TestSendMessageDuringWait(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session).reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{"!r1": generalRoom()})}
	harness.settle()

	ctx := context.Background()
	eventID, err := harness.engine.SendMessage(ctx, ref.MustParseRoomID("!r1"), "hello **world**")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if eventID.String() != "$sent1" {
		t.Errorf("event ID = %q, want $sent1", eventID)
	}

	session.mu.Lock()
	sent := session.sent
	session.mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	content := sent[0].content
	if content.MsgType != schema.MsgTypeText || content.Body != "hello **world**" {
		t.Errorf("content = %+v", content)
	}
	if content.Format != schema.FormatHTML || !strings.Contains(content.FormattedBody, "<strong>world</strong>") {
		t.Errorf("formatted body = %q (format %q)", content.FormattedBody, content.Format)
	}

	// The sent message enters the index only through a later sync.
	if count := harness.engine.Room(ref.MustParseRoomID("!r1")).Messages().Len(); count != 1 {
		t.Errorf("room has %d messages after send, want 1", count)
	}

	_, err = harness.engine.SendMessage(ctx, ref.MustParseRoomID("!nowhere"), "hi")
	if !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("SendMessage to unknown room = %v, want ErrUnknownRoom", err)
	}
}

func TestRefreshRoomState(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	session.roomState[ref.MustParseRoomID("!r1")] = []messaging.Event{
		nameEvent("Renamed"),
		aliasEvent("#general:example.org"),
	}
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session).reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{"!r1": generalRoom()})}
	harness.settle()

	if err := harness.engine.RefreshRoomState(context.Background(), ref.MustParseRoomID("!r1")); err != nil {
		t.Fatalf("RefreshRoomState failed: %v", err)
	}
	room := harness.engine.GetRoomByName("#general:example.org")
	if room == nil || room.Name() != "Renamed" {
		t.Fatalf("GetRoomByName(alias) = %v after refresh", room)
	}
}

func TestAliasTable(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	withAlias := func(alias string) messaging.JoinedRoom {
		return messaging.JoinedRoom{State: messaging.StateSection{Events: []messaging.Event{aliasEvent(alias)}}}
	}

	receiveCall(t, session).reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{
		"!r1": withAlias("#general:example.org"),
	})}
	harness.settle()
	if room := harness.engine.GetRoomByName("#general:example.org"); room == nil || room.ID().String() != "!r1" {
		t.Fatalf("alias lookup = %v, want !r1", room)
	}
	harness.tick()

	receiveCall(t, session).reply <- syncResult{response: batch("s2", map[string]messaging.JoinedRoom{
		"!r1": withAlias("#main:example.org"),
	})}
	harness.settle()
	if room := harness.engine.GetRoomByName("#general:example.org"); room != nil {
		t.Error("old alias still resolves after the room changed alias")
	}
	if room := harness.engine.GetRoomByName("#main:example.org"); room == nil {
		t.Error("new alias does not resolve")
	}
	harness.tick()

	// A second room claiming the alias takes it over; the first room
	// dropping it later does not disturb the new owner.
	receiveCall(t, session).reply <- syncResult{response: batch("s3", map[string]messaging.JoinedRoom{
		"!r2": withAlias("#main:example.org"),
	})}
	harness.settle()
	harness.tick()
	receiveCall(t, session).reply <- syncResult{response: batch("s4", map[string]messaging.JoinedRoom{
		"!r1": {State: messaging.StateSection{Events: []messaging.Event{{
			Type:     schema.EventTypeRoomCanonicalAlias,
			StateKey: strPtr(""),
			Content:  map[string]any{},
		}}}},
	})}
	harness.settle()
	if room := harness.engine.GetRoomByName("#main:example.org"); room == nil || room.ID().String() != "!r2" {
		t.Errorf("alias lookup = %v, want !r2", room)
	}
}

func TestDirectRooms(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	response := batch("s1", map[string]messaging.JoinedRoom{"!dm": {}})
	response.AccountData.Events = []messaging.Event{{
		Type: schema.EventTypeDirect,
		Content: map[string]any{
			"@bob:example.org":   []any{"!gone", "!dm"},
			"not a user":         []any{"!dm"},
			"@carol:example.org": []any{"!elsewhere"},
		},
	}}
	receiveCall(t, session).reply <- syncResult{response: response}
	harness.settle()

	if room := harness.engine.GetDirectByName("@bob:example.org"); room == nil || room.ID().String() != "!dm" {
		t.Errorf("GetDirectByName(bob) = %v, want !dm", room)
	}
	if room := harness.engine.GetDirectByName("@carol:example.org"); room != nil {
		t.Errorf("GetDirectByName(carol) = %v, want nil for an unjoined room", room)
	}
	if room := harness.engine.GetDirectByName("bob"); room != nil {
		t.Errorf("GetDirectByName(bob) = %v, want nil for a malformed user ID", room)
	}
}

func TestMultiRoomOrderingAndDedup(t *testing.T) {
	session := newFakeSession("@alice:example.org")
	harness := newTestEngine(t, &fakeHomeserver{loginSessions: []*fakeSession{session}}, passwordAccount(t))
	harness.start(t)

	receiveCall(t, session).reply <- syncResult{response: batch("s1", map[string]messaging.JoinedRoom{
		"!b": {Timeline: messaging.TimelineSection{Events: []messaging.Event{textEvent("$b1", "@bob:example.org", 5, "from b")}}},
		"!a": {Timeline: messaging.TimelineSection{Events: []messaging.Event{textEvent("$a1", "@bob:example.org", 9, "from a")}}},
	})}
	harness.settle()
	harness.tick()

	// A redelivered event is not inserted or announced twice.
	receiveCall(t, session).reply <- syncResult{response: batch("s2", map[string]messaging.JoinedRoom{
		"!a": {Timeline: messaging.TimelineSection{Events: []messaging.Event{
			textEvent("$a1", "@bob:example.org", 9, "from a"),
			textEvent("$a2", "@bob:example.org", 10, "again"),
		}}},
	})}
	harness.settle()

	want := []string{
		"room !a ", "message !a from a",
		"room !b ", "message !b from b",
		"connected",
		"message !a again",
	}
	if got := harness.recorder.snapshot(); !slices.Equal(got, want) {
		t.Errorf("notifications = %q, want %q", got, want)
	}

	rooms := harness.engine.Rooms()
	if len(rooms) != 2 || rooms[0].ID().String() != "!a" || rooms[1].ID().String() != "!b" {
		t.Errorf("Rooms() order wrong: %v", rooms)
	}
	if user := harness.engine.Users().GetUserByName("@bob:example.org"); user == nil {
		t.Error("sender missing from the user directory")
	}
}
