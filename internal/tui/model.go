package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/viewport"
)

// FocusedPane represents which pane currently has keyboard focus.
type FocusedPane int

const (
	// FocusRoadmap means the roadmap canvas has focus (default).
	FocusRoadmap FocusedPane = iota
	// FocusChat means the chat pane has focus.
	FocusChat
)

// Layout size constants.
const (
	// headerRows is the title row plus divider above the canvas.
	headerRows = 2
	// footerRows is the divider plus footer below the canvas.
	footerRows = 2
	// sidePanelCols is the width of the suggestion panel.
	sidePanelCols = 36
	// chatPanelCols is the width of the chat pane.
	chatPanelCols = 48
	// minCanvasCols is the minimum canvas width before side panes are hidden.
	minCanvasCols = 30
)

// model is the bubbletea model for the TUI.
type model struct {
	roadmap *session.Roadmap
	changes <-chan session.RoadmapChange
	errs    <-chan error
	source  string

	pane     RoadmapPane
	chat     ChatPane
	chatOpen bool
	detail   *DetailModal
	overall  progress.Model

	// UI state
	width       int
	height      int
	focusedPane FocusedPane
	notice      string
	noticeErr   bool

	onQuit func()
}

// roadmapChangedMsg wraps a roadmap change for the bubbletea message system.
type roadmapChangedMsg session.RoadmapChange

// reloadErrorMsg carries a document reload failure.
type reloadErrorMsg struct {
	err error
}

// modelConfig holds everything newModel needs.
type modelConfig struct {
	roadmap *session.Roadmap
	chat    *Chat
	limits  viewport.Limits
	errs    <-chan error
	source  string
	onQuit  func()
}

// newModel creates a new model with the given configuration.
func newModel(cfg modelConfig) model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20

	limits := cfg.limits
	if limits == (viewport.Limits{}) {
		limits = viewport.DefaultLimits()
	}

	return model{
		roadmap:     cfg.roadmap,
		changes:     cfg.roadmap.Subscribe(),
		errs:        cfg.errs,
		source:      cfg.source,
		pane:        NewRoadmapPane(cfg.roadmap, limits),
		chat:        NewChatPane(cfg.chat),
		detail:      NewDetailModal(),
		overall:     bar,
		focusedPane: FocusRoadmap,
		onQuit:      cfg.onQuit,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.changes),
		waitForError(m.errs),
		m.chat.Init(),
	)
}

// Update, handleKey, handleMouse are implemented in update.go
// View is implemented in view.go

// toggleChat opens or closes the chat pane.
func (m *model) toggleChat() tea.Cmd {
	m.chatOpen = !m.chatOpen
	var cmd tea.Cmd
	if m.chatOpen {
		m.focusedPane = FocusChat
		m.chat.SetFocused(true)
		cmd = m.chat.Open()
	} else {
		m.focusedPane = FocusRoadmap
		m.chat.SetFocused(false)
	}
	m.pane.SetFocused(m.focusedPane == FocusRoadmap)
	m.updatePaneSizes()
	return cmd
}

// sideWidth returns the width of the side column, or 0 when the terminal is
// too narrow to show it next to the canvas.
func (m model) sideWidth() int {
	w := sidePanelCols
	if m.chatOpen {
		w = chatPanelCols
	}
	if m.width-w-1 < minCanvasCols {
		return 0
	}
	return w
}

// canvasWidth returns the width of the roadmap canvas.
func (m model) canvasWidth() int {
	if side := m.sideWidth(); side > 0 {
		return m.width - side - 1 // divider column
	}
	return m.width
}

// bodyHeight returns the rows between header and footer.
func (m model) bodyHeight() int {
	return max(1, m.height-headerRows-footerRows)
}

// updatePaneSizes recalculates pane dimensions.
func (m *model) updatePaneSizes() {
	m.pane.SetSize(safeWidth(m.canvasWidth()), m.bodyHeight())
	m.chat.SetSize(safeWidth(m.sideWidth()), m.bodyHeight())
}

// isChatFocused returns true if the chat pane has focus.
func (m model) isChatFocused() bool {
	return m.chatOpen && m.focusedPane == FocusChat
}

func (m *model) setNotice(text string) {
	m.notice = text
	m.noticeErr = false
}

func (m *model) setError(text string) {
	m.notice = text
	m.noticeErr = true
}
