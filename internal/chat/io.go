// Package chat drives the conversation with the financial assistant: it sends
// prompts through the chat API and keeps the session's thread and message
// stores in step with the server.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/npratt/finroad/internal/chatapi"
	"github.com/npratt/finroad/internal/session"
)

const (
	// TypingText is the assistant placeholder shown while a prompt is in flight.
	TypingText = "typing…"

	// DefaultThreadTitle names threads started without a title.
	DefaultThreadTitle = "New chat"

	// Greeting opens every new thread.
	Greeting = "Hello! Which goal shall we talk about?"

	// TimeLayout is the clock format shown next to messages.
	TimeLayout = "15:04"

	lastMessageRunes = 80
)

var (
	// ErrBusy is returned by Send while another prompt is in flight.
	ErrBusy = errors.New("chat: a message is already being sent")

	// ErrNotRetryable is returned by Retry for messages that did not fail.
	ErrNotRetryable = errors.New("chat: message is not a failed user message")
)

// API is the part of the chat backend the flow needs.
type API interface {
	SendPrompt(ctx context.Context, chatID, content string) (json.RawMessage, error)
	GetChat(ctx context.Context, chatID string) (*chatapi.GetChatResponse, error)
}

// IO sends prompts and loads history for the active thread.
type IO struct {
	api      API
	threads  *session.Threads
	messages *session.Messages

	now    func() time.Time
	newID  func() string
	loc    *time.Location
	logger *slog.Logger

	mu        sync.Mutex
	sending   bool
	lastError string
	loading   bool
	loadError string
}

// Option configures an IO.
type Option func(*IO)

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *IO) {
		c.now = now
	}
}

// WithIDs sets the generator for message and thread ids.
func WithIDs(newID func() string) Option {
	return func(c *IO) {
		c.newID = newID
	}
}

// WithLocation sets the zone message times are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *IO) {
		c.loc = loc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *IO) {
		c.logger = l
	}
}

// New creates a chat flow over the given stores.
func New(api API, threads *session.Threads, messages *session.Messages, opts ...Option) *IO {
	c := &IO{
		api:      api,
		threads:  threads,
		messages: messages,
		now:      time.Now,
		newID:    uuid.NewString,
		loc:      time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sending reports whether a prompt is in flight.
func (c *IO) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// LastError returns the error text of the last failed send, or "".
func (c *IO) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Loading reports whether history is being fetched.
func (c *IO) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadError returns the error text of the last failed history load, or "".
func (c *IO) LoadError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadError
}

func (c *IO) clock() string {
	return c.now().In(c.loc).Format(TimeLayout)
}

// Send posts text (and a note about attached files) to the active thread.
// The user message appears immediately as pending, followed by a typing
// placeholder; on success the thread is replaced by the server's history.
// On failure the user message is marked failed and kept so it can be
// retried. Send is a no-op without an active thread or input.
func (c *IO) Send(ctx context.Context, text string, files []session.FilePreview) error {
	threadID := c.threads.ActiveID()
	if threadID == "" || (text == "" && len(files) == 0) {
		return nil
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.sending = true
	c.lastError = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	userID := c.newID()
	c.messages.Push(threadID, session.Message{
		ID:      userID,
		Role:    session.RoleUser,
		Text:    text,
		Files:   files,
		Time:    c.clock(),
		Pending: true,
	})

	last := truncateRunes(text, lastMessageRunes)
	at := c.now()
	c.threads.UpdateMeta(threadID, session.ThreadPatch{LastMessage: &last, UpdatedAt: &at})

	typingID := c.newID()
	c.messages.Push(threadID, session.Message{
		ID:     typingID,
		Role:   session.RoleAssistant,
		Text:   TypingText,
		Time:   c.clock(),
		Typing: true,
	})

	if err := c.roundTrip(ctx, threadID, PromptContent(text, len(files))); err != nil {
		msg := chatapi.ErrorMessage(err)
		pending := false
		c.messages.UpdateByID(threadID, userID, session.MessagePatch{Pending: &pending, Error: &msg})
		c.messages.RemoveByID(threadID, typingID)

		c.mu.Lock()
		c.lastError = msg
		c.mu.Unlock()

		c.logger.Warn("chat send failed", "thread", threadID, "error", err)
		return fmt.Errorf("send to thread %s: %w", threadID, err)
	}

	pending := false
	c.messages.UpdateByID(threadID, userID, session.MessagePatch{Pending: &pending})
	return nil
}

func (c *IO) roundTrip(ctx context.Context, threadID, content string) error {
	if _, err := c.api.SendPrompt(ctx, threadID, content); err != nil {
		return err
	}
	resp, err := c.api.GetChat(ctx, threadID)
	if err != nil {
		return err
	}
	c.messages.SetForThread(threadID, c.fromDTOs(resp.Data.Messages))
	return nil
}

// Retry resends a failed user message of the active thread. The failed copy
// is removed before the new attempt.
func (c *IO) Retry(ctx context.Context, messageID string) error {
	threadID := c.threads.ActiveID()
	msg, ok := c.messages.Get(threadID, messageID)
	if !ok || msg.Role != session.RoleUser || !msg.Failed() {
		return ErrNotRetryable
	}
	if c.Sending() {
		return ErrBusy
	}
	c.messages.RemoveByID(threadID, messageID)
	return c.Send(ctx, msg.Text, msg.Files)
}

// LastFailed returns the most recent failed user message of the active thread.
func (c *IO) LastFailed() (session.Message, bool) {
	list := c.messages.List(c.threads.ActiveID())
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Role == session.RoleUser && list[i].Failed() {
			return list[i], true
		}
	}
	return session.Message{}, false
}

// LoadHistory replaces the active thread's messages with the server's.
func (c *IO) LoadHistory(ctx context.Context) error {
	threadID := c.threads.ActiveID()
	if threadID == "" {
		return nil
	}

	c.mu.Lock()
	c.loading = true
	c.loadError = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	resp, err := c.api.GetChat(ctx, threadID)
	if err != nil {
		c.mu.Lock()
		c.loadError = chatapi.ErrorMessage(err)
		c.mu.Unlock()
		return fmt.Errorf("load thread %s: %w", threadID, err)
	}
	c.messages.SetForThread(threadID, c.fromDTOs(resp.Data.Messages))
	return nil
}

// StartNewChat adds a thread, makes it active and greets the user. It
// returns the new thread id.
func (c *IO) StartNewChat(title string) string {
	if title == "" {
		title = DefaultThreadTitle
	}
	id := c.newID()
	c.threads.Add(session.Thread{ID: id, Title: title, UpdatedAt: c.now()})
	c.threads.SetActive(id)
	c.messages.Push(id, session.Message{
		ID:   c.newID(),
		Role: session.RoleAssistant,
		Text: Greeting,
		Time: c.clock(),
	})
	return id
}

// Clear empties the active thread locally.
func (c *IO) Clear() {
	if id := c.threads.ActiveID(); id != "" {
		c.messages.SetForThread(id, nil)
	}
}

// PromptContent is the text sent for a prompt with n attached files. Files
// are not uploaded; the prompt only mentions them.
func PromptContent(text string, n int) string {
	if n == 0 {
		return text
	}
	return fmt.Sprintf("%s\n\n[attached: %d file(s)]", text, n)
}

func (c *IO) fromDTOs(dtos []chatapi.MessageDTO) []session.Message {
	out := make([]session.Message, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, c.FromDTO(d))
	}
	return out
}

// FromDTO converts a server message. Missing ids get a fresh one, a missing
// role means the assistant, and a missing or unparseable timestamp shows the
// current time.
func (c *IO) FromDTO(d chatapi.MessageDTO) session.Message {
	m := session.Message{
		ID:   d.ID,
		Role: session.Role(d.Role),
		Text: d.Content,
	}
	if m.ID == "" {
		m.ID = c.newID()
	}
	if m.Role == "" {
		m.Role = session.RoleAssistant
	}
	if t, err := time.Parse(time.RFC3339Nano, d.CreatedAt); err == nil {
		m.Time = t.In(c.loc).Format(TimeLayout)
	} else {
		m.Time = c.clock()
	}
	return m
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
