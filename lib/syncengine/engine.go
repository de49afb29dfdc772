// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/clock"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/secret"
	"github.com/bureau-foundation/mxchat/messaging"
)

// DefaultSyncInterval is the pause after every sync call.
const DefaultSyncInterval = time.Second

// logoutTimeout bounds the logout call made on shutdown, after the
// caller's context is already cancelled.
const logoutTimeout = 5 * time.Second

// Account holds the login parameters. Token and Password are borrowed:
// the engine reads them but never closes them.
type Account struct {
	// URL is the homeserver base URL. Used only when Config.Homeserver
	// is nil.
	URL string

	Username string

	// Token, when set, is tried first. Password is used when no token
	// was given, or after the homeserver rejected the token.
	Token    *secret.Buffer
	Password *secret.Buffer

	// DeviceName is the device display name for password login.
	DeviceName string
}

// Config configures an Engine.
type Config struct {
	Account Account

	// Homeserver creates sessions. If nil, a messaging.Client for
	// Account.URL is used.
	Homeserver Homeserver

	// HTTPClient is passed to the messaging.Client built when
	// Homeserver is nil.
	HTTPClient *http.Client

	// Clock times the pauses between syncs. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// SyncInterval is the pause after each sync call, successful or
	// not. Defaults to DefaultSyncInterval.
	SyncInterval time.Duration

	// SyncTimeout is the long-poll hold requested from the homeserver.
	SyncTimeout time.Duration
}

// Engine is the sync state machine and the owner of all client state:
// the room table, the alias table, and the direct-message map.
type Engine struct {
	account      Account
	homeserver   Homeserver
	clock        clock.Clock
	logger       *slog.Logger
	syncInterval time.Duration
	syncTimeout  time.Duration

	users   *chatstate.Directory
	reducer *chatstate.Reducer

	// mu guards everything below it. Run is the only writer.
	mu            sync.RWMutex
	state         State
	session       messaging.Session
	ownsDevice    bool // session came from a password login
	identity      ref.UserID
	cursor        string
	connected     bool
	lastErr       error
	tokenRejected bool
	failure       *FailureError
	rooms         map[ref.RoomID]*chatstate.Room
	aliases       map[ref.RoomAlias]ref.RoomID
	direct        map[ref.UserID][]ref.RoomID

	observers observers

	requests chan *request
	done     chan struct{}
	running  atomic.Bool
}

// New validates config and returns an engine in the authenticating
// state. Call Run to start it.
func New(config Config) (*Engine, error) {
	account := config.Account
	if account.Token == nil && account.Password == nil {
		return nil, fmt.Errorf("syncengine: account needs a token or a password")
	}
	if account.Password != nil && account.Username == "" {
		return nil, fmt.Errorf("syncengine: password login needs a username")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	homeserver := config.Homeserver
	if homeserver == nil {
		client, err := messaging.NewClient(messaging.ClientConfig{
			HomeserverURL: account.URL,
			HTTPClient:    config.HTTPClient,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("syncengine: %w", err)
		}
		homeserver = NewHomeserver(client)
	}

	engineClock := config.Clock
	if engineClock == nil {
		engineClock = clock.Real()
	}

	syncInterval := config.SyncInterval
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}

	users := chatstate.NewDirectory()
	return &Engine{
		account:      account,
		homeserver:   homeserver,
		clock:        engineClock,
		logger:       logger,
		syncInterval: syncInterval,
		syncTimeout:  max(config.SyncTimeout, 0),
		users:        users,
		reducer:      chatstate.NewReducer(users, logger),
		state:        StateAuthenticating,
		rooms:        make(map[ref.RoomID]*chatstate.Room),
		aliases:      make(map[ref.RoomAlias]ref.RoomID),
		direct:       make(map[ref.UserID][]ref.RoomID),
		requests:     make(chan *request),
		done:         make(chan struct{}),
	}, nil
}

// Run drives the state machine until ctx is cancelled or the engine
// fails. It returns ctx.Err() on cancellation and the *FailureError on
// failure. On return the session is closed, and a session created by
// password login is logged out first. Run may be called only once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)
	defer e.closeSession(ctx)

	for {
		var err error
		switch state := e.State(); state {
		case StateAuthenticating:
			e.chooseAuthentication()
		case StateAuthenticatingToken:
			err = e.authenticateWithToken(ctx)
		case StateAuthenticatingPassword:
			err = e.authenticateWithPassword(ctx)
		case StateSync:
			err = e.syncOnce(ctx)
		case StateSyncWait, StateSyncFailed:
			err = e.wait(ctx, state)
		case StateFailed:
			e.mu.RLock()
			failure := e.failure
			e.mu.RUnlock()
			return failure
		default:
			panic(fmt.Sprintf("syncengine: no handler for state %q", state))
		}
		if err != nil {
			return err
		}
	}
}

// chooseAuthentication picks the token path when a token was supplied
// and has not been rejected, else the password path.
func (e *Engine) chooseAuthentication() {
	e.mu.RLock()
	useToken := e.account.Token != nil && (!e.tokenRejected || e.account.Password == nil)
	e.mu.RUnlock()

	if useToken {
		e.transition(StateAuthenticatingToken, nil)
	} else {
		e.transition(StateAuthenticatingPassword, nil)
	}
}

func (e *Engine) authenticateWithToken(ctx context.Context) error {
	session, err := e.homeserver.SessionFromToken(e.account.Token)
	if err != nil {
		e.fail(fmt.Errorf("syncengine: preparing token session: %w", err))
		return nil
	}

	userID, err := session.WhoAmI(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		session.Close()
		return ctxErr
	}
	if err != nil {
		session.Close()
		e.fail(fmt.Errorf("syncengine: verifying access token: %w", err))
		return nil
	}

	e.logger.Info("authenticated with access token", "user_id", userID)
	e.adoptSession(session, userID, false)
	return nil
}

func (e *Engine) authenticateWithPassword(ctx context.Context) error {
	session, err := e.homeserver.Login(ctx, messaging.LoginRequest{
		Username:   e.account.Username,
		Password:   e.account.Password,
		DeviceName: e.account.DeviceName,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		if session != nil {
			session.Close()
		}
		return ctxErr
	}
	if err != nil {
		e.fail(fmt.Errorf("syncengine: logging in as %s: %w", e.account.Username, err))
		return nil
	}

	// Login reports the user ID the homeserver assigned; it may be
	// absent on non-conforming servers, leaving the identity unknown.
	userID := session.UserID()
	e.logger.Info("authenticated with password", "user_id", userID)
	e.adoptSession(session, userID, true)
	return nil
}

// adoptSession installs session as the current one. The session it
// replaces was rejected by the homeserver, so it is closed without a
// logout.
func (e *Engine) adoptSession(session messaging.Session, userID ref.UserID, ownsDevice bool) {
	e.mu.Lock()
	previous := e.session
	e.session = session
	e.ownsDevice = ownsDevice
	e.identity = userID
	e.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	e.transition(StateSync, nil)
}

// syncOnce issues one sync call and applies its result.
func (e *Engine) syncOnce(ctx context.Context) error {
	e.mu.RLock()
	session := e.session
	cursor := e.cursor
	e.mu.RUnlock()

	started := e.clock.Now()
	response, err := session.Sync(ctx, messaging.SyncOptions{
		Since:   cursor,
		Timeout: e.syncTimeout,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	e.logger.Debug("sync returned", "since", cursor, "elapsed", e.clock.Now().Sub(started), "error", err)
	if err != nil {
		wrapped := fmt.Errorf("syncengine: sync since %q: %w", cursor, err)
		if errors.Is(err, messaging.ErrReauthRequired) {
			e.mu.Lock()
			e.lastErr = wrapped
			e.tokenRejected = true
			e.ownsDevice = false
			e.mu.Unlock()
			e.logger.Warn("homeserver rejected the session; authenticating again", "error", err)
			e.transition(StateAuthenticating, wrapped)
			return nil
		}
		e.mu.Lock()
		e.lastErr = wrapped
		e.mu.Unlock()
		e.transition(StateSyncFailed, wrapped)
		return nil
	}

	e.applyBatch(response)

	e.mu.Lock()
	first := !e.connected
	e.connected = true
	e.cursor = response.NextBatch
	e.mu.Unlock()

	if first {
		e.logger.Info("initial sync complete", "rooms", len(e.Rooms()))
		e.observers.emitConnected()
	}
	e.transition(StateSyncWait, nil)
	return nil
}

// wait pauses for the sync interval, serving consumer requests in the
// meantime, then returns to sync.
func (e *Engine) wait(ctx context.Context, state State) error {
	if state == StateSyncFailed {
		e.logger.Error("sync failed; will retry", "error", e.LastError(), "retry_in", e.syncInterval)
	}

	timer := e.clock.NewTimer(e.syncInterval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C():
			e.transition(StateSync, nil)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case pending := <-e.requests:
			e.serve(ctx, pending)
		}
	}
}

// fail records err and enters the terminal state. The error
// notification is the last thing the engine emits.
func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	failure := &FailureError{State: e.state, Err: err}
	e.failure = failure
	e.mu.Unlock()

	e.logger.Error("matrix client failure", "state", failure.State, "error", err)
	e.transition(StateFailed, err)
	e.observers.emitError(failure)
}

// transition moves the machine to next, panicking if the allow-list
// forbids it, and notifies state observers.
func (e *Engine) transition(next State, cause error) {
	e.mu.Lock()
	current := e.state
	if !CanTransition(current, next) {
		e.mu.Unlock()
		panic(fmt.Sprintf("syncengine: illegal transition %s -> %s", current, next))
	}
	e.state = next
	e.mu.Unlock()

	e.logger.Debug("state transition", "from", current, "to", next)
	e.observers.emitStateChange(StateEvent{Old: current, New: next, Err: cause})
}

// closeSession releases the current session. A password login
// registered a device on the homeserver; it is logged out so that
// every run does not leave another device behind.
func (e *Engine) closeSession(ctx context.Context) {
	e.mu.Lock()
	session := e.session
	ownsDevice := e.ownsDevice
	e.session = nil
	e.ownsDevice = false
	e.mu.Unlock()
	if session == nil {
		return
	}
	defer session.Close()

	if !ownsDevice {
		return
	}
	logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
	defer cancel()
	if err := session.Logout(logoutCtx); err != nil {
		e.logger.Warn("logging out the session's device failed", "error", err)
		return
	}
	e.logger.Info("logged out", "user_id", session.UserID())
}
