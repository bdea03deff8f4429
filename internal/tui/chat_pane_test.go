package tui

import (
	"strings"
	"testing"

	"github.com/npratt/finroad/internal/chat"
	"github.com/npratt/finroad/internal/session"
)

func openChatPane(t *testing.T, api *fakeAPI) ChatPane {
	t.Helper()
	p := NewChatPane(sampleChat(api))
	p.SetSize(48, 20)
	p.SetFocused(true)
	return p
}

func typeText(p ChatPane, text string) ChatPane {
	p, _ = p.Update(keyMsg(text))
	return p
}

func TestChatPane_Send(t *testing.T) {
	api := &fakeAPI{}
	p := openChatPane(t, api)

	p = typeText(p, "How much should I save?")
	p, cmd := p.Update(keyMsg("enter"))
	if !p.IsSending() {
		t.Fatal("IsSending() = false after enter")
	}
	if !strings.Contains(p.View(), "Sending...") {
		t.Error("status bar does not show the spinner")
	}

	// input is frozen while the prompt is in flight
	p = typeText(p, "more")
	if got := p.input.Value(); got != "How much should I save?" {
		t.Errorf("input = %q while sending, want unchanged", got)
	}

	p, _ = p.Update(runCmd[chatSentMsg](t, cmd))
	if p.IsSending() {
		t.Error("IsSending() = true after the result arrived")
	}
	if got := p.input.Value(); got != "" {
		t.Errorf("input = %q after a successful send, want cleared", got)
	}
	if got := api.Prompts(); len(got) != 1 || got[0] != "How much should I save?" {
		t.Errorf("prompts = %q", got)
	}
	if out := stripANSI(p.View()); !strings.Contains(out, "How much should I save?") {
		t.Errorf("history missing the sent message:\n%s", out)
	}
}

func TestChatPane_EmptyInputIgnored(t *testing.T) {
	p := openChatPane(t, &fakeAPI{})

	p = typeText(p, "   ")
	p, cmd := p.Update(keyMsg("enter"))
	if cmd != nil || p.IsSending() {
		t.Error("blank input should not send")
	}
}

func TestChatPane_SendFailureAndRetry(t *testing.T) {
	api := &fakeAPI{sendErr: errOffline}
	p := openChatPane(t, api)

	p = typeText(p, "hello")
	p, cmd := p.Update(keyMsg("enter"))
	p, _ = p.Update(runCmd[chatSentMsg](t, cmd))

	if got := p.input.Value(); got != "hello" {
		t.Errorf("input = %q after failure, want kept", got)
	}
	out := stripANSI(p.View())
	for _, want := range []string{"Error: backend offline", "ctrl+r to retry"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}

	api.mu.Lock()
	api.sendErr = nil
	api.mu.Unlock()

	p, cmd = p.Update(keyMsg("ctrl+r"))
	if cmd == nil {
		t.Fatal("ctrl+r did not start a retry")
	}
	p, _ = p.Update(runCmd[chatSentMsg](t, cmd))

	if p.errorMsg != "" {
		t.Errorf("errorMsg = %q after retry, want cleared", p.errorMsg)
	}
	msgs := p.chat.Messages.List("t1")
	if len(msgs) != 1 || msgs[0].Failed() {
		t.Errorf("messages after retry = %+v, want the server history", msgs)
	}
}

func TestChatPane_RetryWithoutFailure(t *testing.T) {
	p := openChatPane(t, &fakeAPI{})
	if _, cmd := p.Update(keyMsg("ctrl+r")); cmd != nil {
		t.Error("ctrl+r without a failed message should do nothing")
	}
}

func TestChatPane_CycleModel(t *testing.T) {
	p := openChatPane(t, &fakeAPI{})
	if !strings.Contains(p.View(), "[general]") {
		t.Errorf("header missing the active model:\n%s", p.View())
	}

	p, _ = p.Update(keyMsg("ctrl+o"))
	if got := p.chat.Models.Active(); got != session.ModelCumulative {
		t.Errorf("Active() = %q, want %q", got, session.ModelCumulative)
	}
	if !strings.Contains(p.View(), "[cumulative]") {
		t.Errorf("header not updated:\n%s", p.View())
	}
}

func TestChatPane_NewChat(t *testing.T) {
	p := openChatPane(t, &fakeAPI{})
	before := p.chat.Threads.ActiveID()

	p, _ = p.Update(keyMsg("ctrl+n"))
	id := p.chat.Threads.ActiveID()
	if id == before {
		t.Fatal("ctrl+n did not switch threads")
	}
	msgs := p.chat.Messages.List(id)
	if len(msgs) != 1 || msgs[0].Text != chat.Greeting {
		t.Errorf("new thread messages = %+v, want the greeting", msgs)
	}
	if !strings.Contains(p.View(), chat.DefaultThreadTitle) {
		t.Errorf("header missing the new thread title:\n%s", p.View())
	}
}

func TestChatPane_Clear(t *testing.T) {
	p := openChatPane(t, &fakeAPI{prompts: []string{"old"}})
	cmd := p.Open()
	p, _ = p.Update(runCmd[chatHistoryMsg](t, cmd))

	p, _ = p.Update(keyMsg("ctrl+l"))
	if out := stripANSI(p.View()); !strings.Contains(out, "No messages yet.") {
		t.Errorf("cleared thread should be empty:\n%s", out)
	}
}

func TestChatPane_EscClearsThenUnfocuses(t *testing.T) {
	p := openChatPane(t, &fakeAPI{})
	p.errorMsg = "boom"
	p = typeText(p, "draft")

	p, _ = p.Update(keyMsg("esc"))
	if p.errorMsg != "" || p.input.Value() != "draft" {
		t.Fatalf("first esc: errorMsg = %q, input = %q", p.errorMsg, p.input.Value())
	}
	p, _ = p.Update(keyMsg("esc"))
	if p.input.Value() != "" || !p.IsFocused() {
		t.Fatalf("second esc: input = %q, focused = %v", p.input.Value(), p.IsFocused())
	}
	p, _ = p.Update(keyMsg("esc"))
	if p.IsFocused() {
		t.Error("third esc should release focus")
	}
}

func TestChatPane_OpenLoadsHistoryOnce(t *testing.T) {
	p := openChatPane(t, &fakeAPI{prompts: []string{"earlier question"}})

	cmd := p.Open()
	p, _ = p.Update(runCmd[chatHistoryMsg](t, cmd))
	if out := stripANSI(p.View()); !strings.Contains(out, "earlier question") {
		t.Errorf("history not loaded:\n%s", out)
	}
	if p.Open() != nil {
		t.Error("second Open should not reload history")
	}
}

func TestChatPane_Disabled(t *testing.T) {
	p := NewChatPane(nil)
	p.SetSize(40, 10)
	p.SetFocused(true)

	p = typeText(p, "hi")
	if _, cmd := p.Update(keyMsg("enter")); cmd != nil {
		t.Error("disabled pane should not send")
	}
	if out := stripANSI(p.View()); !strings.Contains(out, "Chat is not configured.") {
		t.Errorf("View() = %q", out)
	}
	if p.Open() != nil {
		t.Error("disabled pane should not load history")
	}
}

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  session.Message
		want []string
	}{
		{"user", session.Message{Role: session.RoleUser, Text: "hi", Time: "12:30"}, []string{"user 12:30", "hi"}},
		{"pending", session.Message{Role: session.RoleUser, Text: "hi", Pending: true}, []string{"hi (sending)"}},
		{"failed", session.Message{Role: session.RoleUser, Text: "hi", Error: "timeout"}, []string{"failed: timeout (ctrl+r to retry)"}},
		{"files", session.Message{Role: session.RoleUser, Text: "see", Files: []session.FilePreview{{Name: "a.pdf"}, {Name: "b.pdf"}}}, []string{"2 files"}},
		{"assistant", session.Message{Role: session.RoleAssistant, Text: "Start with 10%"}, []string{"assistant", "Start with 10%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := stripANSI(renderMessage(tt.msg, 40))
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("renderMessage missing %q:\n%s", want, out)
				}
			}
		})
	}
}
