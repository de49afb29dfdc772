// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/syncengine"
)

// Source is the client state the model reads and the operations it
// invokes. *syncengine.Engine implements it.
type Source interface {
	Rooms() []*chatstate.Room
	Room(roomID ref.RoomID) *chatstate.Room
	Identity() ref.UserID
	SendMessage(ctx context.Context, roomID ref.RoomID, body string) (ref.EventID, error)
	RefreshRoomState(ctx context.Context, roomID ref.RoomID) error
}

// Notifier is the engine's observer registration surface.
type Notifier interface {
	OnConnected(func())
	OnRoom(func(*chatstate.Room))
	OnMessage(func(*chatstate.Message))
	OnError(func(error))
	OnStateChange(func(syncengine.StateEvent))
}

type (
	connectedMsg struct{}
	roomMsg      struct{ room *chatstate.Room }
	messageMsg   struct{ message *chatstate.Message }
	stateMsg     struct{ event syncengine.StateEvent }
	failureMsg   struct{ err error }
)

// Subscribe forwards every engine notification to send, normally a
// tea.Program's Send. Send blocks until the program accepts the
// message, so the engine never runs ahead of the screen.
func Subscribe(notifier Notifier, send func(tea.Msg)) {
	notifier.OnConnected(func() { send(connectedMsg{}) })
	notifier.OnRoom(func(room *chatstate.Room) { send(roomMsg{room: room}) })
	notifier.OnMessage(func(message *chatstate.Message) { send(messageMsg{message: message}) })
	notifier.OnError(func(err error) { send(failureMsg{err: err}) })
	notifier.OnStateChange(func(event syncengine.StateEvent) { send(stateMsg{event: event}) })
}
