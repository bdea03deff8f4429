package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/npratt/finroad/internal/viewport"
)

// TestTUILifecycleSmoke verifies the full bubbletea program lifecycle:
// start, handle keyboard and mouse input, and quit cleanly.
// This test uses teatest to run the TUI headlessly without a real TTY.
func TestTUILifecycleSmoke(t *testing.T) {
	r := sampleRoadmap(t)

	var quitCalled bool
	m := newModel(modelConfig{
		roadmap: r,
		limits:  viewport.DefaultLimits(),
		source:  "journey.json",
		onQuit:  func() { quitCalled = true },
	})

	tm := teatest.NewTestModel(
		t,
		m,
		teatest.WithInitialTermSize(120, 40),
	)

	// Wait briefly for Init to complete
	time.Sleep(50 * time.Millisecond)

	// Pan, zoom and move the selection
	tm.Send(tea.KeyMsg{Type: tea.KeyLeft})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})

	// Nudge the selected node's progress
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})

	// Open and close the detail modal
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

	// Scroll-zoom with the mouse
	tm.Send(tea.MouseMsg{X: 20, Y: 10, Button: tea.MouseButtonWheelDown, Ctrl: true})

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if fm == nil {
		t.Fatal("FinalModel returned nil")
	}
	if !quitCalled {
		t.Error("quit callback was not invoked")
	}

	final := fm.(model)
	if got := final.pane.Selected(); got != "credit" {
		t.Errorf("Selected() = %q, want %q", got, "credit")
	}
	if got := r.Journey().Node("credit").Percent(); got != 5 {
		t.Errorf("credit percent = %v, want 5", got)
	}
	if got := final.pane.Zoom(); got > 1.01 {
		t.Errorf("Zoom() = %v, want back near 1 after zooming out", got)
	}

	out := tm.FinalOutput(t, teatest.WithFinalTimeout(5*time.Second))
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(out)
	if !strings.Contains(buf.String(), "Buy a first apartment") {
		t.Error("output does not contain the journey title")
	}
}

// TestTUILifecycleReload verifies that a journey replaced while the program
// runs reaches the view through the roadmap subscription.
func TestTUILifecycleReload(t *testing.T) {
	r := sampleRoadmap(t)
	m := newModel(modelConfig{roadmap: r, source: "journey.json"})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	time.Sleep(50 * time.Millisecond)

	j := sampleJourney(t)
	j.Title = "Buy a house instead"
	r.Replace(j)

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Buy a house instead"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	if got := fm.(model).notice; got != "reloaded journey.json" {
		t.Errorf("notice = %q, want reload notice", got)
	}
}

// TestTUILifecycleChat verifies sending a prompt from the chat pane.
func TestTUILifecycleChat(t *testing.T) {
	api := &fakeAPI{}
	m := newModel(modelConfig{
		roadmap: sampleRoadmap(t),
		chat:    sampleChat(api),
	})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	time.Sleep(50 * time.Millisecond)

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	tm.Type("what next?")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return len(api.Prompts()) == 1
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))

	final := fm.(model)
	if !final.chatOpen {
		t.Error("chat pane closed unexpectedly")
	}
	if got := api.Prompts(); len(got) != 1 || got[0] != "what next?" {
		t.Errorf("prompts = %q", got)
	}
}
