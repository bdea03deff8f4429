package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/npratt/finroad/internal/chatapi"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/testutil"
)

var fixedNow = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

type fakeAPI struct {
	prompts  []string
	sendErr  error
	getErr   error
	history  *chatapi.GetChatResponse
	block    chan struct{} // SendPrompt waits on it when non-nil
	entered  chan struct{}
	getCalls int
}

func (f *fakeAPI) SendPrompt(ctx context.Context, chatID, content string) (json.RawMessage, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.prompts = append(f.prompts, content)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeAPI) GetChat(ctx context.Context, chatID string) (*chatapi.GetChatResponse, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.history != nil {
		return f.history, nil
	}
	return &chatapi.GetChatResponse{ID: chatID}, nil
}

func sampleHistory(t *testing.T) *chatapi.GetChatResponse {
	t.Helper()
	var resp chatapi.GetChatResponse
	if err := json.Unmarshal([]byte(testutil.ChatHistoryJSON), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return &resp
}

func newIO(api API) (*IO, *session.Threads, *session.Messages) {
	threads := session.NewThreads(session.Thread{ID: "t1", Title: "Apartment down payment"})
	messages := session.NewMessages()
	n := 0
	c := New(api, threads, messages,
		WithClock(func() time.Time { return fixedNow }),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		WithLocation(time.UTC),
	)
	return c, threads, messages
}

func TestSend_ReplacesThreadWithHistory(t *testing.T) {
	api := &fakeAPI{history: sampleHistory(t)}
	c, threads, messages := newIO(api)

	if err := c.Send(context.Background(), "How much should I save?", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(api.prompts) != 1 || api.prompts[0] != "How much should I save?" {
		t.Errorf("prompts = %q", api.prompts)
	}
	list := messages.List("t1")
	if len(list) != 3 {
		t.Fatalf("got %d messages, want 3", len(list))
	}
	if list[0].ID != "m1" || list[0].Role != session.RoleUser || list[0].Time != "09:05" {
		t.Errorf("first = %+v", list[0])
	}
	if list[1].Time != "12:30" {
		t.Errorf("second time = %q, want current time", list[1].Time)
	}
	if list[2].Role != session.RoleAssistant || list[2].ID == "" {
		t.Errorf("third = %+v, want assistant with generated id", list[2])
	}
	for _, m := range list {
		if m.Typing {
			t.Errorf("typing placeholder left behind: %+v", m)
		}
	}

	th, _ := threads.Get("t1")
	if th.LastMessage != "How much should I save?" || !th.UpdatedAt.Equal(fixedNow) {
		t.Errorf("thread meta = %+v", th)
	}
	if c.Sending() || c.LastError() != "" {
		t.Errorf("Sending = %v, LastError = %q", c.Sending(), c.LastError())
	}
}

func TestSend_OptimisticMessages(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{})}
	c, _, messages := newIO(api)

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "hi", nil) }()
	<-api.entered

	list := messages.List("t1")
	if len(list) != 2 {
		t.Fatalf("got %d messages in flight, want 2", len(list))
	}
	if !list[0].Pending || list[0].Role != session.RoleUser || list[0].Time != "12:30" {
		t.Errorf("user message = %+v, want pending", list[0])
	}
	if !list[1].Typing || list[1].Text != TypingText {
		t.Errorf("placeholder = %+v", list[1])
	}
	if !c.Sending() {
		t.Error("Sending = false while in flight")
	}
	if err := c.Send(context.Background(), "again", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second Send = %v, want ErrBusy", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestSend_FailureMarksMessage(t *testing.T) {
	api := &fakeAPI{sendErr: &chatapi.APIError{Status: 503}}
	c, _, messages := newIO(api)

	err := c.Send(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("Send succeeded, want error")
	}

	list := messages.List("t1")
	if len(list) != 1 {
		t.Fatalf("got %d messages, want only the user message", len(list))
	}
	if list[0].Pending || list[0].Error != "HTTP 503" || list[0].Text != "hi" {
		t.Errorf("user message = %+v", list[0])
	}
	if c.LastError() != "HTTP 503" {
		t.Errorf("LastError = %q, want HTTP 503", c.LastError())
	}
	if c.Sending() {
		t.Error("Sending stayed true after failure")
	}
}

func TestSend_RefetchFailure(t *testing.T) {
	api := &fakeAPI{getErr: &chatapi.APIError{Message: "chat not found"}}
	c, _, messages := newIO(api)

	if err := c.Send(context.Background(), "hi", nil); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if got, _ := c.LastFailed(); got.Error != "chat not found" {
		t.Errorf("failed message = %+v", got)
	}
	if n := len(messages.List("t1")); n != 1 {
		t.Errorf("got %d messages, want 1", n)
	}
}

func TestSend_NoOp(t *testing.T) {
	api := &fakeAPI{}
	c, threads, messages := newIO(api)

	if err := c.Send(context.Background(), "", nil); err != nil {
		t.Errorf("empty Send = %v", err)
	}
	threads.SetActive("")
	if err := c.Send(context.Background(), "hi", nil); err != nil {
		t.Errorf("Send without thread = %v", err)
	}
	if len(api.prompts) != 0 || len(messages.List("t1")) != 0 {
		t.Error("no-op Send reached the API or the store")
	}
}

func TestSend_FilesOnly(t *testing.T) {
	api := &fakeAPI{}
	c, _, _ := newIO(api)
	files := []session.FilePreview{{ID: "f1", Name: "salary.pdf", Size: 1024, Type: "application/pdf"}}

	if err := c.Send(context.Background(), "", files); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(api.prompts) != 1 || api.prompts[0] != "\n\n[attached: 1 file(s)]" {
		t.Errorf("prompts = %q", api.prompts)
	}
}

func TestSend_TruncatesLastMessage(t *testing.T) {
	c, threads, _ := newIO(&fakeAPI{})
	text := strings.Repeat("ж", 100)

	if err := c.Send(context.Background(), text, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	th, _ := threads.Get("t1")
	if got := len([]rune(th.LastMessage)); got != 80 {
		t.Errorf("last message has %d runes, want 80", got)
	}
}

func TestRetry(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("offline")}
	c, _, messages := newIO(api)
	_ = c.Send(context.Background(), "hi", nil)

	failed, ok := c.LastFailed()
	if !ok {
		t.Fatal("no failed message")
	}

	api.sendErr = nil
	if err := c.Retry(context.Background(), failed.ID); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if len(api.prompts) != 2 || api.prompts[1] != "hi" {
		t.Errorf("prompts = %q", api.prompts)
	}
	if _, ok := messages.Get("t1", failed.ID); ok {
		t.Error("failed copy still present")
	}
	if _, ok := c.LastFailed(); ok {
		t.Error("a failed message remains after a successful retry")
	}
}

func TestRetry_NotFailed(t *testing.T) {
	c, _, messages := newIO(&fakeAPI{})
	messages.Push("t1", session.Message{ID: "ok", Role: session.RoleUser, Text: "fine"})

	if err := c.Retry(context.Background(), "ok"); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("Retry = %v, want ErrNotRetryable", err)
	}
	if err := c.Retry(context.Background(), "missing"); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("Retry = %v, want ErrNotRetryable", err)
	}
}

func TestLoadHistory(t *testing.T) {
	api := &fakeAPI{history: sampleHistory(t)}
	c, _, messages := newIO(api)

	if err := c.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if n := len(messages.List("t1")); n != 3 {
		t.Errorf("got %d messages, want 3", n)
	}

	api.getErr = errors.New("timeout")
	if err := c.LoadHistory(context.Background()); err == nil {
		t.Fatal("LoadHistory succeeded, want error")
	}
	if c.LoadError() != "timeout" {
		t.Errorf("LoadError = %q, want timeout", c.LoadError())
	}
	if n := len(messages.List("t1")); n != 3 {
		t.Errorf("failed load changed messages: %d", n)
	}
	if c.Loading() {
		t.Error("Loading stayed true")
	}
}

func TestStartNewChat(t *testing.T) {
	c, threads, messages := newIO(&fakeAPI{})

	id := c.StartNewChat("")

	if threads.ActiveID() != id {
		t.Errorf("ActiveID = %q, want %q", threads.ActiveID(), id)
	}
	list := threads.List()
	if list[0].ID != id || list[0].Title != DefaultThreadTitle {
		t.Errorf("first thread = %+v", list[0])
	}
	msgs := messages.List(id)
	if len(msgs) != 1 || msgs[0].Text != Greeting || msgs[0].Role != session.RoleAssistant {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestClear(t *testing.T) {
	c, _, messages := newIO(&fakeAPI{})
	messages.Push("t1", session.Message{ID: "a", Text: "x"})
	messages.Push("t2", session.Message{ID: "b", Text: "y"})

	c.Clear()

	if n := len(messages.List("t1")); n != 0 {
		t.Errorf("t1 has %d messages, want 0", n)
	}
	if n := len(messages.List("t2")); n != 1 {
		t.Errorf("t2 has %d messages, want 1", n)
	}
}

func TestFromDTO(t *testing.T) {
	c, _, _ := newIO(&fakeAPI{})

	tests := []struct {
		name string
		dto  chatapi.MessageDTO
		want session.Message
	}{
		{
			"complete",
			chatapi.MessageDTO{ID: "m1", Role: "user", Content: "hi", CreatedAt: "2026-03-01T09:05:00Z"},
			session.Message{ID: "m1", Role: session.RoleUser, Text: "hi", Time: "09:05"},
		},
		{
			"missing role and time",
			chatapi.MessageDTO{ID: "m2", Content: "ok"},
			session.Message{ID: "m2", Role: session.RoleAssistant, Text: "ok", Time: "12:30"},
		},
		{
			"bad time",
			chatapi.MessageDTO{ID: "m3", Role: "system", CreatedAt: "yesterday"},
			session.Message{ID: "m3", Role: session.RoleSystem, Time: "12:30"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FromDTO(tt.dto)
			if got.ID != tt.want.ID || got.Role != tt.want.Role || got.Text != tt.want.Text || got.Time != tt.want.Time {
				t.Errorf("FromDTO = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPromptContent(t *testing.T) {
	if got := PromptContent("hi", 0); got != "hi" {
		t.Errorf("PromptContent = %q", got)
	}
	if got := PromptContent("hi", 2); got != "hi\n\n[attached: 2 file(s)]" {
		t.Errorf("PromptContent = %q", got)
	}
}
