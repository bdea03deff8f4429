package tui

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/npratt/finroad/internal/journey"
)

const truncateIndicator = "..."

// statusIcon returns a single-cell icon for a node status.
func statusIcon(s journey.Status) string {
	switch s.OrLocked() {
	case journey.StatusUnlocked:
		return "o"
	case journey.StatusInProgress:
		return "*"
	case journey.StatusCompleted:
		return "+"
	default:
		return "x"
	}
}

// priorityLabel returns a short priority label.
func priorityLabel(p journey.Priority) string {
	switch p {
	case journey.PriorityHigh:
		return "high"
	case journey.PriorityLow:
		return "low"
	default:
		return "med"
	}
}

// pluralize returns "1 node" or "3 nodes".
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// truncate shortens text to maxLen runes, adding an indicator if truncated.
func truncate(s string, maxLen int) string {
	s = safeString(s)
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return string(r[:max(0, maxLen)])
	}
	return string(r[:maxLen-len(truncateIndicator)]) + truncateIndicator
}

// safeString sanitizes a string for display by removing control characters
// and collapsing whitespace.
func safeString(s string) string {
	s = stripANSI(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// wordWrap wraps text to fit within the given width, breaking on spaces
// where possible.
func wordWrap(text string, width int) string {
	if width < 1 {
		width = 1
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		r := []rune(line)
		for len(r) > width {
			breakAt := width
			for j := width; j > 0; j-- {
				if r[j-1] == ' ' {
					breakAt = j
					break
				}
			}
			result.WriteString(strings.TrimRight(string(r[:breakAt]), " "))
			result.WriteString("\n")
			r = []rune(strings.TrimLeft(string(r[breakAt:]), " "))
		}
		result.WriteString(string(r))
	}
	return result.String()
}

// safeWidth ensures width is at least 1.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// safeHeight ensures height is at least 1.
func safeHeight(h int) int {
	if h < 1 {
		return 1
	}
	return h
}
