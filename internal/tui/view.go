package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/npratt/finroad/internal/suggest"
	"github.com/npratt/finroad/internal/viewport"
)

const (
	minWidth  = 60
	minHeight = 15
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	if m.detail.IsOpen() {
		return m.renderWithModal()
	}

	sections := []string{
		m.renderHeader(),
		m.renderDivider(),
		m.renderBody(),
		m.renderDivider(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

// renderHeader renders the journey title and overall progress bar.
func (m model) renderHeader() string {
	j := m.roadmap.Journey()
	overall := j.OverallPercent()

	right := lipgloss.JoinHorizontal(lipgloss.Top,
		m.overall.ViewAs(overall/100),
		" ",
		styles.Overall.Render(suggest.ProgressLabel(overall)),
	)
	titleWidth := max(1, m.width-lipgloss.Width(right)-1)
	title := styles.Title.Render(truncate(safeString(j.Title), titleWidth))

	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(right))
	return title + strings.Repeat(" ", gap) + right
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", safeWidth(m.width)))
}

// renderBody renders the canvas with the side column next to it.
func (m model) renderBody() string {
	canvas := m.pane.View()
	side := m.sideWidth()
	if side == 0 {
		return canvas
	}

	var panel string
	if m.chatOpen {
		panel = m.chat.View()
	} else {
		panel = m.renderSidePanel(side, m.bodyHeight())
	}
	rule := styles.Divider.Render(strings.TrimSuffix(strings.Repeat("│\n", m.bodyHeight()), "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, rule, panel)
}

// renderSidePanel renders the suggestion and the selected node summary.
func (m model) renderSidePanel(width, height int) string {
	j := m.roadmap.Journey()
	s := m.roadmap.Suggestion()
	inner := safeWidth(width - 1)

	var lines []string
	lines = append(lines, styles.Heading.Render("Next step"))
	if n := j.Node(s.ChosenNodeID); n != nil {
		lines = append(lines, styles.Selected.Render(truncate(statusIcon(n.Status)+" "+safeString(n.Title), inner)))
		for i, step := range s.Actions {
			lines = append(lines, styles.Label.Render(truncate(fmt.Sprintf("%d. %s", i+1, step.Label), inner)))
		}
	}
	for _, msg := range s.Messages {
		for _, l := range strings.Split(wordWrap(msg, inner), "\n") {
			lines = append(lines, styles.Message.Render(l))
		}
	}

	if n := j.Node(m.pane.Selected()); n != nil {
		lines = append(lines, "", styles.Heading.Render("Selected"))
		lines = append(lines, truncate(statusIcon(n.Status)+" "+safeString(n.Title), inner))
		lines = append(lines, styles.Label.Render(fmt.Sprintf("%s  %s  %s",
			suggest.ProgressLabel(n.Percent()), priorityLabel(n.Priority), n.Status.OrLocked())))
		if steps := suggest.Steps(n); len(steps) > 0 {
			lines = append(lines, styles.Label.Render(pluralize(len(steps), "step", "steps")+" (enter, 1-3)"))
		}
		lines = append(lines, styles.Footer.Render("[ ] adjust  i: details"))
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))
}

// renderFooter renders key hints, the latest notice and the zoom level.
func (m model) renderFooter() string {
	var hints string
	switch {
	case m.isChatFocused():
		hints = "enter: send  ctrl+r: retry  ctrl+n: new  ctrl+o: model  esc: back"
	default:
		hints = "arrows: pan  +/-: zoom  tab: select  c: chat  i: info  q: quit"
	}

	zoom := fmt.Sprintf("%d%%", int(m.pane.Zoom()*100+0.5))
	if mode := m.pane.Mode(); mode != viewport.Idle {
		zoom = mode.String() + " " + zoom
	}
	right := styles.Footer.Render(zoom)

	left := styles.Footer.Render(hints)
	if m.notice != "" {
		style := styles.Notice
		if m.noticeErr {
			style = styles.Error
		}
		avail := max(1, m.width-lipgloss.Width(right)-1)
		left = style.Render(truncate(m.notice, avail))
	}

	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderTooSmall renders a message when the terminal is too small.
func (m model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small\nNeed %dx%d, have %dx%d",
		minWidth, minHeight, m.width, m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
}

// renderWithModal renders the detail modal centered over a blank screen.
func (m model) renderWithModal() string {
	modal := m.detail.View(m.width, m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
