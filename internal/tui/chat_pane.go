package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	msgview "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/npratt/finroad/internal/chat"
	"github.com/npratt/finroad/internal/session"
)

const (
	// chatRequestTimeout bounds a send or history load started from the pane.
	chatRequestTimeout = 60 * time.Second
	// chatChromeRows is the header, status and input rows around the history.
	chatChromeRows = 3
)

// Chat bundles the chat flow with the stores it writes to.
type Chat struct {
	IO       *chat.IO
	Threads  *session.Threads
	Messages *session.Messages
	Models   *session.Models
}

// ChatPane shows the active thread and sends prompts.
type ChatPane struct {
	chat     *Chat
	changes  <-chan session.MessagesChange
	input    textinput.Model
	history  msgview.Model
	spinner  spinner.Model
	sending  bool
	loaded   bool
	errorMsg string
	width    int
	height   int
	focused  bool
}

// chatSentMsg carries the result of a send or retry.
type chatSentMsg struct {
	err error
}

// chatHistoryMsg carries the result of a history load.
type chatHistoryMsg struct {
	err error
}

// chatMessagesMsg signals that the message store changed.
type chatMessagesMsg struct{}

// NewChatPane creates a chat pane. A nil chat yields a disabled pane.
func NewChatPane(c *Chat) ChatPane {
	ti := textinput.New()
	ti.Placeholder = "Ask about your roadmap..."
	ti.CharLimit = 2000
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := ChatPane{
		chat:    c,
		input:   ti,
		history: msgview.New(0, 0),
		spinner: sp,
	}
	if c != nil {
		p.changes = c.Messages.Subscribe()
	}
	return p
}

// Init starts listening for message changes.
func (p ChatPane) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMessages(p.changes))
}

// waitForMessages waits for the next message store change. A nil or closed
// channel ends the loop.
func waitForMessages(ch <-chan session.MessagesChange) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return chatMessagesMsg{}
	}
}

// Open prepares the pane for display, loading history the first time.
func (p *ChatPane) Open() tea.Cmd {
	p.refreshHistory()
	if p.chat == nil || p.loaded {
		return nil
	}
	p.loaded = true
	io := p.chat.IO
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatRequestTimeout)
		defer cancel()
		return chatHistoryMsg{err: io.LoadHistory(ctx)}
	}
}

// Update handles messages and returns the updated pane and any commands.
func (p ChatPane) Update(msg tea.Msg) (ChatPane, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)

	case chatMessagesMsg:
		p.refreshHistory()
		return p, waitForMessages(p.changes)

	case chatSentMsg:
		p.sending = false
		switch {
		case msg.err == nil:
			p.errorMsg = ""
			p.input.Reset()
		case errors.Is(msg.err, chat.ErrBusy), errors.Is(msg.err, chat.ErrNotRetryable):
		default:
			p.errorMsg = p.chat.IO.LastError()
		}
		p.refreshHistory()
		return p, nil

	case chatHistoryMsg:
		if msg.err != nil {
			p.errorMsg = p.chat.IO.LoadError()
		}
		p.refreshHistory()
		return p, nil

	case spinner.TickMsg:
		if p.sending {
			var cmd tea.Cmd
			p.spinner, cmd = p.spinner.Update(msg)
			return p, cmd
		}
		return p, nil

	default:
		if p.focused && !p.sending {
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}
		return p, nil
	}
}

// handleKey processes keyboard input.
func (p ChatPane) handleKey(msg tea.KeyMsg) (ChatPane, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(p.input.Value())
		if p.chat == nil || p.sending || text == "" {
			return p, nil
		}
		io := p.chat.IO
		return p.start(func(ctx context.Context) error {
			return io.Send(ctx, text, nil)
		})

	case "ctrl+r":
		if p.chat == nil || p.sending {
			return p, nil
		}
		failed, ok := p.chat.IO.LastFailed()
		if !ok {
			return p, nil
		}
		io := p.chat.IO
		return p.start(func(ctx context.Context) error {
			return io.Retry(ctx, failed.ID)
		})

	case "ctrl+n":
		if p.chat != nil && !p.sending {
			p.chat.IO.StartNewChat("")
			p.errorMsg = ""
			p.refreshHistory()
		}
		return p, nil

	case "ctrl+l":
		if p.chat != nil && !p.sending {
			p.chat.IO.Clear()
			p.refreshHistory()
		}
		return p, nil

	case "ctrl+o":
		if p.chat != nil && p.chat.Models != nil {
			p.chat.Models.Next()
		}
		return p, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		p.history, cmd = p.history.Update(msg)
		return p, cmd

	case "esc":
		if p.errorMsg != "" {
			p.errorMsg = ""
			return p, nil
		}
		if p.input.Value() != "" {
			p.input.Reset()
			return p, nil
		}
		// nothing to clear, let the parent close the pane
		p.SetFocused(false)
		return p, nil

	default:
		// input is disabled while a prompt is in flight
		if p.sending {
			return p, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
}

// start runs a send in the background with the spinner going.
func (p ChatPane) start(send func(ctx context.Context) error) (ChatPane, tea.Cmd) {
	p.sending = true
	p.errorMsg = ""
	return p, tea.Batch(p.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatRequestTimeout)
		defer cancel()
		return chatSentMsg{err: send(ctx)}
	})
}

// refreshHistory re-renders the active thread into the history viewport.
func (p *ChatPane) refreshHistory() {
	if p.chat == nil {
		p.history.SetContent(styles.Pending.Render("Chat is not configured."))
		return
	}
	width := safeWidth(p.width)
	var lines []string
	for _, m := range p.chat.Messages.List(p.chat.Threads.ActiveID()) {
		lines = append(lines, renderMessage(m, width))
	}
	if len(lines) == 0 {
		lines = append(lines, styles.Pending.Render("No messages yet."))
	}
	p.history.SetContent(strings.Join(lines, "\n"))
	p.history.GotoBottom()
}

// renderMessage formats one message for the history view.
func renderMessage(m session.Message, width int) string {
	var label lipgloss.Style
	switch m.Role {
	case session.RoleUser:
		label = styles.User
	case session.RoleSystem:
		label = styles.System
	default:
		label = styles.Assistant
	}

	head := label.Render(string(m.Role))
	if m.Time != "" {
		head += " " + styles.Pending.Render(m.Time)
	}
	if len(m.Files) > 0 {
		head += " " + styles.Pending.Render(pluralize(len(m.Files), "file", "files"))
	}

	body := wordWrap(m.Text, width)
	switch {
	case m.Typing:
		body = styles.Pending.Render(m.Text)
	case m.Failed():
		body += "\n" + styles.Error.Render("failed: "+m.Error+" (ctrl+r to retry)")
	case m.Pending:
		body += " " + styles.Pending.Render("(sending)")
	}
	return head + "\n" + body
}

// View renders the chat pane.
func (p ChatPane) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	sections := []string{
		p.renderHeader(),
		p.history.View(),
		p.renderStatusBar(),
		p.input.View(),
	}
	return strings.Join(sections, "\n")
}

func (p ChatPane) renderHeader() string {
	if p.chat == nil {
		return styles.Heading.Render("Chat")
	}
	title := chat.DefaultThreadTitle
	if th, ok := p.chat.Threads.Get(p.chat.Threads.ActiveID()); ok && th.Title != "" {
		title = th.Title
	}
	head := "Chat: " + title
	if p.chat.Models != nil {
		head += fmt.Sprintf(" [%s]", p.chat.Models.Active())
	}
	return styles.Heading.Render(truncate(head, p.width))
}

// renderStatusBar renders the sending state, an error or key hints.
func (p ChatPane) renderStatusBar() string {
	if p.sending {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Render(p.spinner.View() + " Sending...")
	}
	if p.errorMsg != "" {
		return styles.Error.Render(truncate("Error: "+p.errorMsg, p.width))
	}
	return styles.Footer.Render(truncate("enter send  ctrl+r retry  ctrl+n new  ctrl+o model  esc close", p.width))
}

// SetSize updates the pane dimensions.
func (p *ChatPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = safeWidth(width - len(p.input.Prompt) - 1)
	p.history.Width = safeWidth(width)
	p.history.Height = safeHeight(height - chatChromeRows)
	p.refreshHistory()
}

// SetFocused updates the focus state.
func (p *ChatPane) SetFocused(focused bool) {
	p.focused = focused
	if focused {
		p.input.Focus()
	} else {
		p.input.Blur()
	}
}

// IsFocused returns true if the pane is focused.
func (p ChatPane) IsFocused() bool {
	return p.focused
}

// IsSending returns true if a prompt is in flight.
func (p ChatPane) IsSending() bool {
	return p.sending
}
