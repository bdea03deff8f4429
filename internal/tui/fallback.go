package tui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/suggest"
	"golang.org/x/term"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// WriteSummary prints a plain-text view of the roadmap: the nodes grouped by
// dependency level in layout order, followed by the current suggestion.
func WriteSummary(w io.Writer, j *journey.Journey, l *layout.Layout, s suggest.Suggestion) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", safeString(j.Title), suggest.ProgressLabel(j.OverallPercent()))

	idx := j.Index()
	for level := 0; level <= l.MaxLevel(); level++ {
		fmt.Fprintf(&b, "level %d\n", level)
		for _, id := range l.Order {
			n, ok := idx[id]
			if !ok || l.Levels[id] != level {
				continue
			}
			marker := " "
			if id == s.ChosenNodeID {
				marker = ">"
			}
			fmt.Fprintf(&b, "%s %s %-32s %5s  %s\n",
				marker, statusIcon(n.Status), truncate(safeString(n.Title), 32),
				suggest.ProgressLabel(n.Percent()), priorityLabel(n.Priority))
		}
	}

	if n := j.Node(s.ChosenNodeID); n != nil {
		fmt.Fprintf(&b, "next: %s\n", n.Title)
		for i, step := range s.Actions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step.Label)
		}
	}
	for _, msg := range s.Messages {
		fmt.Fprintf(&b, "  %s\n", msg)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// runSimple provides line-by-line output for non-interactive environments.
// It prints the roadmap once and again after every reload.
// Exits when the roadmap closes or on interrupt signal.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	changes := t.roadmap.Subscribe()
	defer t.roadmap.Unsubscribe(changes)

	if err := t.printSummary(); err != nil {
		return err
	}

	for {
		select {
		case <-sigChan:
			if t.onQuit != nil {
				t.onQuit()
			}
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Kind != session.JourneyReplaced {
				continue
			}
			fmt.Fprintf(t.out, "%s reloaded %s\n", time.Now().Format("15:04:05"), t.source)
			if err := t.printSummary(); err != nil {
				return err
			}
		case err := <-t.errs:
			fmt.Fprintf(t.out, "%s reload failed: %v\n", time.Now().Format("15:04:05"), err)
		}
	}
}

func (t *TUI) printSummary() error {
	return WriteSummary(t.out, t.roadmap.Journey(), t.roadmap.Layout(), t.roadmap.Suggestion())
}
