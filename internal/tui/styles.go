package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title   lipgloss.Style
	Overall lipgloss.Style

	// Footer style
	Footer lipgloss.Style
	Notice lipgloss.Style
	Error  lipgloss.Style

	// Side panel
	Heading  lipgloss.Style
	Label    lipgloss.Style
	Message  lipgloss.Style
	Selected lipgloss.Style

	// Chat roles
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Pending   lipgloss.Style

	// Focus indicators
	FocusedBorder   lipgloss.Style
	UnfocusedBorder lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Overall: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Notice: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Heading: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Message: lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("177")),

	Selected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	User: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Assistant: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	System: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Pending: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	FocusedBorder: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")), // Bright blue for focused

	UnfocusedBorder: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")), // Dimmed gray for unfocused
}

// graphStyles contains styles specific to roadmap rendering.
var graphStyles = struct {
	Node          lipgloss.Style
	NodeLocked    lipgloss.Style
	NodeCompleted lipgloss.Style
	NodeSelected  lipgloss.Style // outlined by the user
	NodeSuggested lipgloss.Style // chosen by the suggestion engine
	Edge          lipgloss.Style
	EdgeInactive  lipgloss.Style
}{
	Node: lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")),

	NodeLocked: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	NodeCompleted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	NodeSelected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	NodeSuggested: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	Edge: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	EdgeInactive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")),
}
