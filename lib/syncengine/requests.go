// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/schema"
	"github.com/bureau-foundation/mxchat/messaging"
)

// request is a unit of work handed to the Run goroutine.
type request struct {
	ctx   context.Context
	run   func(ctx context.Context, session messaging.Session) error
	reply chan error
}

// submit hands work to the run loop and waits for its result. The loop
// picks requests up only between sync calls.
func (e *Engine) submit(ctx context.Context, run func(ctx context.Context, session messaging.Session) error) error {
	pending := &request{
		ctx:   ctx,
		run:   run,
		reply: make(chan error, 1),
	}

	select {
	case e.requests <- pending:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case err := <-pending.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// serve runs one request on the loop goroutine. The request's own
// context bounds it, and so does the engine's.
func (e *Engine) serve(engineCtx context.Context, pending *request) {
	ctx, cancel := context.WithCancel(pending.ctx)
	stop := context.AfterFunc(engineCtx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	e.mu.RLock()
	session := e.session
	e.mu.RUnlock()

	pending.reply <- pending.run(ctx, session)
}

// SendMessage sends body to a joined room as a markdown m.text message
// and returns the event ID. The message reaches the room's index via a
// later sync, like any other.
func (e *Engine) SendMessage(ctx context.Context, roomID ref.RoomID, body string) (ref.EventID, error) {
	return e.SendContent(ctx, roomID, messaging.NewMarkdownMessage(body))
}

// SendContent sends prepared message content to a joined room.
func (e *Engine) SendContent(ctx context.Context, roomID ref.RoomID, content schema.MessageContent) (ref.EventID, error) {
	if e.Room(roomID) == nil {
		return ref.EventID{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}

	var eventID ref.EventID
	err := e.submit(ctx, func(ctx context.Context, session messaging.Session) error {
		var sendErr error
		eventID, sendErr = session.SendMessage(ctx, roomID, content)
		return sendErr
	})
	if err != nil {
		return ref.EventID{}, fmt.Errorf("syncengine: sending to %s: %w", roomID, err)
	}
	e.logger.Debug("message sent", "room_id", roomID, "event_id", eventID)
	return eventID, nil
}

// RefreshRoomState fetches a joined room's complete current state and
// applies it through the reducer, as if it had arrived in a sync.
func (e *Engine) RefreshRoomState(ctx context.Context, roomID ref.RoomID) error {
	room := e.Room(roomID)
	if room == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}

	err := e.submit(ctx, func(ctx context.Context, session messaging.Session) error {
		events, err := session.GetRoomState(ctx, roomID)
		if err != nil {
			return err
		}
		result := e.reducer.Apply(room, chatstate.Batch{State: events})
		e.recordAlias(roomID, result)
		for _, message := range result.Messages {
			e.observers.emitMessage(message)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("syncengine: refreshing state of %s: %w", roomID, err)
	}
	return nil
}
