// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"

	"github.com/bureau-foundation/mxchat/lib/secret"
	"github.com/bureau-foundation/mxchat/messaging"
)

// Homeserver produces authenticated sessions. [NewHomeserver] adapts a
// *messaging.Client; tests substitute scripted fakes.
type Homeserver interface {
	Login(ctx context.Context, request messaging.LoginRequest) (messaging.Session, error)
	SessionFromToken(token *secret.Buffer) (messaging.Session, error)
}

// NewHomeserver wraps client as a Homeserver.
func NewHomeserver(client *messaging.Client) Homeserver {
	return clientHomeserver{client: client}
}

type clientHomeserver struct {
	client *messaging.Client
}

func (homeserver clientHomeserver) Login(ctx context.Context, request messaging.LoginRequest) (messaging.Session, error) {
	session, err := homeserver.client.Login(ctx, request)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (homeserver clientHomeserver) SessionFromToken(token *secret.Buffer) (messaging.Session, error) {
	session, err := homeserver.client.SessionFromToken(token)
	if err != nil {
		return nil, err
	}
	return session, nil
}
