package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/suggest"
)

// DetailModal displays a node's full details in a modal overlay.
type DetailModal struct {
	node      *journey.Node
	deps      []journey.Node // resolved dependencies, in declaration order
	scrollPos int
	open      bool
}

// NewDetailModal creates a closed DetailModal.
func NewDetailModal() *DetailModal {
	return &DetailModal{}
}

// Open shows node id of journey j. Unknown ids leave the modal closed.
func (m *DetailModal) Open(j *journey.Journey, id string) {
	n := j.Node(id)
	if n == nil {
		return
	}
	m.open = true
	m.node = n
	m.scrollPos = 0
	m.deps = m.deps[:0]
	for _, dep := range n.Dependencies {
		if d := j.Node(dep); d != nil {
			m.deps = append(m.deps, *d)
		} else {
			m.deps = append(m.deps, journey.Node{ID: dep, Title: dep})
		}
	}
}

// Close closes the modal.
func (m *DetailModal) Close() {
	m.open = false
	m.node = nil
	m.deps = nil
	m.scrollPos = 0
}

// IsOpen returns true if the modal is open.
func (m *DetailModal) IsOpen() bool {
	return m.open
}

// NodeID returns the id of the node shown, or "".
func (m *DetailModal) NodeID() string {
	if m.node == nil {
		return ""
	}
	return m.node.ID
}

// Update handles messages for the modal.
func (m *DetailModal) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "esc", "enter", "q", "i":
		m.Close()

	case "up", "k":
		if m.scrollPos > 0 {
			m.scrollPos--
		}

	case "down", "j":
		// capped in View based on content height
		m.scrollPos++

	case "home", "g":
		m.scrollPos = 0

	case "end", "G":
		m.scrollPos = 9999
	}
	return nil
}

// View renders the modal within the parent dimensions.
func (m *DetailModal) View(parentWidth, parentHeight int) string {
	if !m.open || m.node == nil {
		return ""
	}

	modalWidth := max(40, parentWidth*80/100)
	modalHeight := max(10, parentHeight*80/100)
	innerWidth := modalWidth - 6 // border and padding

	lines := strings.Split(m.renderDetails(innerWidth), "\n")

	visibleHeight := max(3, modalHeight-6)
	maxScroll := max(0, len(lines)-visibleHeight)
	m.scrollPos = min(m.scrollPos, maxScroll)
	end := min(len(lines), m.scrollPos+visibleHeight)
	visible := strings.Join(lines[m.scrollPos:end], "\n")

	scrollInfo := ""
	if maxScroll > 0 {
		scrollInfo = fmt.Sprintf(" | Line %d/%d", m.scrollPos+1, len(lines))
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		Render("[Enter/Esc] close | [j/k] scroll" + scrollInfo)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(1, 2).
		Width(modalWidth).
		Height(modalHeight).
		Render(visible + "\n\n" + footer)
}

// renderDetails renders every section of the node.
func (m *DetailModal) renderDetails(width int) string {
	n := m.node
	heading := lipgloss.NewStyle().Bold(true)
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render(n.Title))
	sb.WriteString("\n")
	sb.WriteString(meta.Render(fmt.Sprintf("Status: %s | Priority: %s | Type: %s | %s",
		n.Status.OrLocked(), n.Priority, orDash(string(n.Kind)), suggest.ProgressLabel(n.Percent()))))
	sb.WriteString("\n")

	if n.Progress.HasNumeric() {
		sb.WriteString(meta.Render(fmt.Sprintf("Progress: %g of %g", *n.Progress.CurrentValue, *n.Progress.TargetValue)))
		sb.WriteString("\n")
	}
	if eta, ok := n.ETADays(); ok {
		sb.WriteString(meta.Render(fmt.Sprintf("ETA: %g days", eta)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if text := firstNonEmpty(n.Description, n.Summary); text != "" {
		sb.WriteString(wordWrap(stripANSI(text), width))
		sb.WriteString("\n\n")
	}

	if len(m.deps) > 0 {
		sb.WriteString(heading.Render("Depends on:"))
		sb.WriteString("\n")
		for _, d := range m.deps {
			sb.WriteString(fmt.Sprintf("  %s %s\n", statusIcon(d.Status), truncate(d.Title, width-4)))
		}
		sb.WriteString("\n")
	}

	if len(n.Subnodes) > 0 {
		sb.WriteString(heading.Render("Steps:"))
		sb.WriteString("\n")
		for _, s := range n.Subnodes {
			line := statusIcon(s.Status) + " " + s.Title
			if a := s.SuggestedAction.String(); a != "" {
				line += " (" + a + ")"
			}
			sb.WriteString("  " + truncate(line, width-2) + "\n")
		}
		sb.WriteString("\n")
	}

	if advice := suggest.Advice(n); len(advice) > 0 {
		sb.WriteString(heading.Render("Advice:"))
		sb.WriteString("\n")
		for _, a := range advice {
			sb.WriteString(wordWrap("  - "+a, width))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if n.AIHints != nil && len(n.AIHints.Reminders) > 0 {
		sb.WriteString(heading.Render("Reminders:"))
		sb.WriteString("\n")
		for _, r := range n.AIHints.Reminders {
			sb.WriteString(wordWrap("  - "+r, width))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(n.Rewards) > 0 {
		sb.WriteString(heading.Render("Rewards:"))
		sb.WriteString("\n")
		for _, r := range n.Rewards {
			mark := " "
			if r.Earned {
				mark = "+"
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s (%s)\n", mark, firstNonEmpty(r.Title, r.ID), r.Type))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
