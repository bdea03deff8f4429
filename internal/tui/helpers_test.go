package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/npratt/finroad/internal/chat"
	"github.com/npratt/finroad/internal/chatapi"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/testutil"
	"github.com/npratt/finroad/internal/viewport"
)

func sampleJourney(t *testing.T) *journey.Journey {
	t.Helper()
	j, err := journey.Decode(strings.NewReader(testutil.SampleJourneyJSON), journey.FormatJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return j
}

func sampleRoadmap(t *testing.T) *session.Roadmap {
	t.Helper()
	r := session.NewRoadmap(sampleJourney(t))
	t.Cleanup(r.Close)
	return r
}

// samplePane returns a pane sized to a 100x40 canvas, large enough to show
// every level of the sample journey.
func samplePane(t *testing.T) (RoadmapPane, *session.Roadmap) {
	t.Helper()
	r := sampleRoadmap(t)
	p := NewRoadmapPane(r, viewport.DefaultLimits())
	p.SetSize(100, 40)
	return p, r
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// fakeAPI is an in-memory chat backend. Sent prompts become user messages
// in the history returned by GetChat.
type fakeAPI struct {
	mu      sync.Mutex
	prompts []string
	sendErr error
}

func (f *fakeAPI) SendPrompt(ctx context.Context, chatID, content string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.prompts = append(f.prompts, content)
	return json.RawMessage(`{}`), nil
}

func (f *fakeAPI) GetChat(ctx context.Context, chatID string) (*chatapi.GetChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &chatapi.GetChatResponse{ID: chatID}
	for _, p := range f.prompts {
		resp.Data.Messages = append(resp.Data.Messages, chatapi.MessageDTO{Role: "user", Content: p})
	}
	return resp, nil
}

func (f *fakeAPI) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

var errOffline = errors.New("backend offline")

func sampleChat(api chat.API) *Chat {
	threads := session.NewThreads(session.Thread{ID: "t1", Title: "Apartment down payment"})
	messages := session.NewMessages()
	return &Chat{
		IO: chat.New(api, threads, messages,
			chat.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }),
			chat.WithLocation(time.UTC),
		),
		Threads:  threads,
		Messages: messages,
		Models:   session.NewModels(),
	}
}

// runCmd executes cmd and returns its message, flattening batches by
// returning the first message of the expected type.
func runCmd[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	var zero T
	if cmd == nil {
		t.Fatalf("cmd is nil, want %T", zero)
	}
	switch msg := cmd().(type) {
	case T:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if m, ok := c().(T); ok {
				return m
			}
		}
	}
	t.Fatalf("cmd did not produce %T", zero)
	return zero
}
