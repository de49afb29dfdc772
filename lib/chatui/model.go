// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/mxchat/lib/chatstate"
	"github.com/bureau-foundation/mxchat/lib/ref"
	"github.com/bureau-foundation/mxchat/lib/syncengine"
)

// scrollStep is how many lines one scroll key moves the message pane.
const scrollStep = 5

// commandResultMsg reports the outcome of a send or refresh.
type commandResultMsg struct {
	action string
	roomID ref.RoomID
	err    error
}

// Model is the bubbletea model for the chat client.
type Model struct {
	ctx    context.Context
	source Source
	theme  Theme
	keys   KeyMap

	input    textinput.Model
	viewport viewport.Model
	help     help.Model

	rooms   []*chatstate.Room
	current ref.RoomID
	unread  map[ref.RoomID]int

	width  int
	height int

	state     syncengine.State
	connected bool
	failure   error

	status         string
	statusLevel    slog.Level
	statusSequence int

	// follow pins the message pane to the newest message. Scrolling
	// up clears it; reaching the bottom sets it again.
	follow bool
}

// NewModel returns a model reading from source. ctx bounds the send
// and refresh operations the model starts.
func NewModel(ctx context.Context, source Source) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "message, /room <name>, /refresh, /quit"
	input.Focus()

	return Model{
		ctx:      ctx,
		source:   source,
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		input:    input,
		viewport: viewport.New(0, 0),
		help:     help.New(),
		unread:   make(map[ref.RoomID]int),
		state:    syncengine.StateAuthenticating,
		follow:   true,
	}
}

// CurrentRoom returns the room shown in the message pane, or nil.
func (model Model) CurrentRoom() *chatstate.Room {
	if model.current.IsZero() {
		return nil
	}
	return model.source.Room(model.current)
}

func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.layout()
		model.renderCurrent()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case connectedMsg:
		model.connected = true
		model.reloadRooms()
		if model.current.IsZero() && len(model.rooms) > 0 {
			model.selectRoom(model.rooms[0].ID())
		}
		return model, model.setStatus(fmt.Sprintf("connected as %s", model.source.Identity()), slog.LevelInfo)

	case roomMsg:
		model.reloadRooms()
		if model.current.IsZero() {
			model.selectRoom(message.room.ID())
		}
		return model, nil

	case messageMsg:
		roomID := message.message.Room()
		if roomID == model.current {
			model.renderCurrent()
		} else {
			model.unread[roomID]++
		}
		return model, nil

	case stateMsg:
		model.state = message.event.New
		return model, nil

	case failureMsg:
		model.failure = message.err
		return model, model.setStatus(message.err.Error(), slog.LevelError)

	case logRecordMsg:
		return model, model.setStatus(message.Summary, message.Level)

	case statusFadeMsg:
		if message.sequence == model.statusSequence && model.failure == nil {
			model.status = ""
		}
		return model, nil

	case commandResultMsg:
		if message.err != nil {
			return model, model.setStatus(message.err.Error(), slog.LevelError)
		}
		if message.action == "refresh" {
			model.reloadRooms()
			model.renderCurrent()
			return model, model.setStatus("room state refreshed", slog.LevelInfo)
		}
		return model, nil
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Send):
		line := model.input.Value()
		model.input.Reset()
		return model, model.submit(line)

	case key.Matches(message, model.keys.NextRoom):
		model.cycleRoom(1)
		return model, nil

	case key.Matches(message, model.keys.PreviousRoom):
		model.cycleRoom(-1)
		return model, nil

	case key.Matches(message, model.keys.ScrollUp):
		model.viewport.LineUp(scrollStep)
		model.follow = model.viewport.AtBottom()
		return model, nil

	case key.Matches(message, model.keys.ScrollDown):
		model.viewport.LineDown(scrollStep)
		model.follow = model.viewport.AtBottom()
		return model, nil

	case key.Matches(message, model.keys.Bottom):
		model.viewport.GotoBottom()
		model.follow = true
		return model, nil
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

// parseCommand splits "/name argument" input. A line starting with
// "//" is not a command; it sends the text with one slash removed.
func parseCommand(line string) (name, argument string, ok bool) {
	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		return "", "", false
	}
	name, argument, _ = strings.Cut(line[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(argument), true
}

// submit acts on one line of input.
func (model *Model) submit(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if name, argument, ok := parseCommand(line); ok {
		switch name {
		case "room":
			room := matchRoom(model.rooms, argument)
			if room == nil {
				return model.setStatus(fmt.Sprintf("no joined room matches %q", argument), slog.LevelWarn)
			}
			model.selectRoom(room.ID())
			return nil
		case "refresh":
			if model.current.IsZero() {
				return model.setStatus("no room selected", slog.LevelWarn)
			}
			return refreshCmd(model.ctx, model.source, model.current)
		case "quit":
			return tea.Quit
		default:
			return model.setStatus(fmt.Sprintf("unknown command /%s", name), slog.LevelWarn)
		}
	}
	line = strings.TrimPrefix(line, "/")

	if model.current.IsZero() {
		return model.setStatus("no room selected; use /room <name>", slog.LevelWarn)
	}
	return sendCmd(model.ctx, model.source, model.current, line)
}

func sendCmd(ctx context.Context, source Source, roomID ref.RoomID, body string) tea.Cmd {
	return func() tea.Msg {
		_, err := source.SendMessage(ctx, roomID, body)
		return commandResultMsg{action: "send", roomID: roomID, err: err}
	}
}

func refreshCmd(ctx context.Context, source Source, roomID ref.RoomID) tea.Cmd {
	return func() tea.Msg {
		err := source.RefreshRoomState(ctx, roomID)
		return commandResultMsg{action: "refresh", roomID: roomID, err: err}
	}
}

// setStatus shows text in the status line and schedules its removal.
func (model *Model) setStatus(text string, level slog.Level) tea.Cmd {
	model.statusSequence++
	model.status = singleLine(text)
	model.statusLevel = level

	sequence := model.statusSequence
	return tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
		return statusFadeMsg{sequence: sequence}
	})
}

func (model *Model) reloadRooms() {
	model.rooms = model.source.Rooms()
}

func (model *Model) selectRoom(roomID ref.RoomID) {
	model.current = roomID
	delete(model.unread, roomID)
	model.follow = true
	model.renderCurrent()
}

// cycleRoom moves delta rooms through the sorted room list, wrapping.
func (model *Model) cycleRoom(delta int) {
	if len(model.rooms) == 0 {
		return
	}
	index := slices.IndexFunc(model.rooms, func(room *chatstate.Room) bool {
		return room.ID() == model.current
	})
	if index < 0 {
		index = 0
	} else {
		index = (index + delta + len(model.rooms)) % len(model.rooms)
	}
	model.selectRoom(model.rooms[index].ID())
}

// layout sizes the message pane: everything but the header, input,
// and status lines.
func (model *Model) layout() {
	model.viewport.Width = model.width
	model.viewport.Height = max(model.height-3, 1)
	model.input.Width = max(model.width-lipgloss.Width(model.input.Prompt)-1, 1)
	model.help.Width = model.width
}

// renderCurrent re-renders the current room into the message pane.
func (model *Model) renderCurrent() {
	room := model.CurrentRoom()
	if room == nil || model.width == 0 {
		model.viewport.SetContent("")
		return
	}
	model.viewport.SetContent(renderRoom(room, model.theme, model.width, model.source.Identity()))
	if model.follow {
		model.viewport.GotoBottom()
	}
}

func (model Model) View() string {
	if model.width == 0 {
		return "starting…"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		model.headerView(),
		model.viewport.View(),
		model.input.View(),
		model.statusView(),
	)
}

func (model Model) headerView() string {
	style := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Background(model.theme.HeaderBackground).
		Bold(true)

	title := "no room"
	if room := model.CurrentRoom(); room != nil {
		title = singleLine(room.DisplayName())
		if topic := singleLine(room.Topic()); topic != "" {
			title += " — " + topic
		}
	}

	unread := 0
	for _, count := range model.unread {
		unread += count
	}
	indicator := model.stateIndicator()
	if unread > 0 {
		indicator = fmt.Sprintf("%d unread  %s", unread, indicator)
	}

	available := max(model.width-lipgloss.Width(indicator)-2, 1)
	left := " " + ansi.Truncate(title, available-1, "…")
	gap := max(model.width-lipgloss.Width(left)-lipgloss.Width(indicator)-1, 1)
	return style.Width(model.width).Render(left + strings.Repeat(" ", gap) + indicator)
}

func (model Model) stateIndicator() string {
	color := model.theme.StatePending
	switch {
	case model.failure != nil || model.state == syncengine.StateFailed:
		color = model.theme.StateFailed
	case model.state == syncengine.StateSyncFailed:
		color = model.theme.StateFailed
	case model.connected:
		color = model.theme.StateOK
	}
	return lipgloss.NewStyle().Foreground(color).Render("● " + string(model.state))
}

func (model Model) statusView() string {
	if model.status == "" {
		return model.help.View(model.keys)
	}
	color := model.theme.HelpText
	switch {
	case model.statusLevel >= slog.LevelError:
		color = model.theme.ErrorForeground
	case model.statusLevel >= slog.LevelWarn:
		color = model.theme.WarnForeground
	}
	return lipgloss.NewStyle().Foreground(color).Render(ansi.Truncate(model.status, model.width, "…"))
}
