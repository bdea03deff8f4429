package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/finroad/internal/session"
)

// waitForChange creates a command that waits for the next roadmap change.
// A closed channel ends the loop.
func waitForChange(ch <-chan session.RoadmapChange) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return roadmapChangedMsg(change)
	}
}

// waitForError creates a command that waits for the next reload error.
func waitForError(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return reloadErrorMsg{err: err}
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updatePaneSizes()
		return m, nil

	case roadmapChangedMsg:
		m.handleChange(session.RoadmapChange(msg))
		return m, waitForChange(m.changes)

	case reloadErrorMsg:
		slog.Warn("journey reload failed", "source", m.source, "error", msg.err)
		m.setError("reload failed: " + msg.err.Error())
		return m, waitForError(m.errs)

	case chatSentMsg, chatHistoryMsg, chatMessagesMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd

	default:
		// spinner ticks and cursor blinks
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
}

// handleChange refreshes derived state after a roadmap mutation.
func (m *model) handleChange(c session.RoadmapChange) {
	m.pane.Refresh()
	if c.Kind == session.JourneyReplaced {
		slog.Info("journey reloaded", "source", m.source, "journey", c.Journey.ID)
		m.setNotice("reloaded " + m.source)
		if m.detail.IsOpen() {
			id := m.detail.NodeID()
			m.detail.Close()
			m.detail.Open(c.Journey, id)
		}
	}
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys: always work regardless of focus
	if key == "ctrl+c" {
		return m.quit()
	}

	if m.detail.IsOpen() {
		return m, m.detail.Update(msg)
	}

	// When chat is focused, forward keys to the chat pane
	if m.isChatFocused() {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		if !m.chat.IsFocused() {
			// esc with nothing to clear closes the pane
			m.toggleChat()
		}
		return m, cmd
	}

	switch key {
	case "q":
		return m.quit()

	case "c":
		return m, m.toggleChat()

	case "i":
		m.detail.Open(m.roadmap.Journey(), m.pane.Selected())
		return m, nil

	case "esc":
		m.notice = ""
		return m, nil
	}

	var notice string
	m.pane, notice = m.pane.handleKey(msg)
	if notice != "" {
		m.setNotice(notice)
	}
	return m, nil
}

// quit invokes the quit callback and stops the program.
func (m model) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
	}
	m.roadmap.Unsubscribe(m.changes)
	return m, tea.Quit
}

// handleMouse routes mouse events inside the canvas to the roadmap pane.
func (m model) handleMouse(msg tea.MouseMsg) model {
	if m.detail.IsOpen() {
		return m
	}
	x, y := msg.X, msg.Y-headerRows
	inCanvas := x >= 0 && x < m.canvasWidth() && y >= 0 && y < m.bodyHeight()

	// a drag keeps going when the pointer leaves the canvas
	if !inCanvas && (msg.Action == tea.MouseActionPress || msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown) {
		return m
	}
	m.pane = m.pane.handleMouse(x, y, msg)
	return m
}
