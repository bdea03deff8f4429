// Package tui provides a terminal UI for exploring a financial roadmap using
// bubbletea.
package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/viewport"
)

// errorBuffer bounds pending reload errors; extras are dropped.
const errorBuffer = 8

// TUI is the terminal UI for a roadmap session.
type TUI struct {
	roadmap *session.Roadmap
	chat    *Chat
	limits  viewport.Limits
	source  string
	onQuit  func()
	errs    chan error
	out     io.Writer
	plain   bool
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI over the given roadmap.
func New(r *session.Roadmap, opts ...Option) *TUI {
	t := &TUI{
		roadmap: r,
		limits:  viewport.DefaultLimits(),
		errs:    make(chan error, errorBuffer),
		out:     os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithChat enables the chat pane.
func WithChat(c *Chat) Option {
	return func(t *TUI) {
		t.chat = c
	}
}

// WithLimits sets the zoom limits of the roadmap canvas.
func WithLimits(l viewport.Limits) Option {
	return func(t *TUI) {
		t.limits = l
	}
}

// WithSource names the document shown in reload notices.
func WithSource(name string) Option {
	return func(t *TUI) {
		t.source = name
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput sets where the non-interactive fallback prints.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.out = w
	}
}

// WithPlainOutput forces the line-by-line summary even on a terminal.
func WithPlainOutput(plain bool) Option {
	return func(t *TUI) {
		t.plain = plain
	}
}

// ReportError surfaces a background failure, such as a reload that could not
// be parsed. It never blocks.
func (t *TUI) ReportError(err error) {
	if err == nil {
		return
	}
	select {
	case t.errs <- err:
	default:
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal it
// prints plain summaries instead.
func (t *TUI) Run() error {
	if t.plain || !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(modelConfig{
		roadmap: t.roadmap,
		chat:    t.chat,
		limits:  t.limits,
		errs:    t.errs,
		source:  t.source,
		onQuit:  t.onQuit,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
