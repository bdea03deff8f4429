package session

import (
	"slices"
	"sync"
	"time"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// FilePreview describes a file attached to a user message.
type FilePreview struct {
	ID   string
	Name string
	Size int64
	Type string
}

// Message is a chat message as shown in the chat pane.
type Message struct {
	ID      string
	Role    Role
	Text    string
	Files   []FilePreview
	Time    string // HH:MM
	Pending bool   // sent, awaiting the server
	Typing  bool   // assistant placeholder
	Error   string // set when sending failed
}

// Failed reports whether the message could not be sent.
func (m Message) Failed() bool {
	return m.Error != ""
}

// MessagePatch updates selected message fields. Nil fields are kept.
type MessagePatch struct {
	Text    *string
	Pending *bool
	Typing  *bool
	Error   *string
}

func (p MessagePatch) apply(m *Message) {
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Pending != nil {
		m.Pending = *p.Pending
	}
	if p.Typing != nil {
		m.Typing = *p.Typing
	}
	if p.Error != nil {
		m.Error = *p.Error
	}
}

// Thread is a chat conversation in the sidebar.
type Thread struct {
	ID          string
	Title       string
	LastMessage string
	UpdatedAt   time.Time
}

// ThreadPatch updates thread metadata. Nil fields are kept.
type ThreadPatch struct {
	Title       *string
	LastMessage *string
	UpdatedAt   *time.Time
}

// ThreadsChange is published when the thread list or active thread changes.
type ThreadsChange struct {
	ActiveID string
}

// Threads is the thread list with the active selection.
type Threads struct {
	mu       sync.RWMutex
	threads  []Thread
	activeID string
	router   *Router[ThreadsChange]
}

// NewThreads creates a thread list. The first thread, if any, is active.
func NewThreads(initial ...Thread) *Threads {
	t := &Threads{
		threads: slices.Clone(initial),
		router:  NewRouter[ThreadsChange](0),
	}
	if len(initial) > 0 {
		t.activeID = initial[0].ID
	}
	return t
}

// List returns a copy of the threads, newest first.
func (t *Threads) List() []Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.threads)
}

// ActiveID returns the active thread id, or "" when none.
func (t *Threads) ActiveID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeID
}

// Get returns the thread with the given id.
func (t *Threads) Get(id string) (Thread, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, th := range t.threads {
		if th.ID == id {
			return th, true
		}
	}
	return Thread{}, false
}

// SetActive selects a thread.
func (t *Threads) SetActive(id string) {
	t.mu.Lock()
	t.activeID = id
	t.mu.Unlock()
	t.router.Emit(ThreadsChange{ActiveID: id})
}

// Add prepends a thread.
func (t *Threads) Add(th Thread) {
	t.mu.Lock()
	t.threads = append([]Thread{th}, t.threads...)
	active := t.activeID
	t.mu.Unlock()
	t.router.Emit(ThreadsChange{ActiveID: active})
}

// UpdateMeta patches a thread's metadata. Unknown ids are ignored.
func (t *Threads) UpdateMeta(id string, p ThreadPatch) {
	t.mu.Lock()
	for i := range t.threads {
		if t.threads[i].ID != id {
			continue
		}
		if p.Title != nil {
			t.threads[i].Title = *p.Title
		}
		if p.LastMessage != nil {
			t.threads[i].LastMessage = *p.LastMessage
		}
		if p.UpdatedAt != nil {
			t.threads[i].UpdatedAt = *p.UpdatedAt
		}
	}
	active := t.activeID
	t.mu.Unlock()
	t.router.Emit(ThreadsChange{ActiveID: active})
}

// Subscribe returns a channel of thread list changes.
func (t *Threads) Subscribe() <-chan ThreadsChange {
	return t.router.Subscribe()
}

// MessagesChange is published when a thread's messages change.
type MessagesChange struct {
	ThreadID string
}

// Messages holds the messages of every thread.
type Messages struct {
	mu       sync.RWMutex
	byThread map[string][]Message
	router   *Router[MessagesChange]
}

// NewMessages creates an empty message store.
func NewMessages() *Messages {
	return &Messages{
		byThread: make(map[string][]Message),
		router:   NewRouter[MessagesChange](0),
	}
}

// List returns a copy of a thread's messages in order.
func (m *Messages) List(threadID string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.byThread[threadID])
}

// Get returns a message by id.
func (m *Messages) Get(threadID, id string) (Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, msg := range m.byThread[threadID] {
		if msg.ID == id {
			return msg, true
		}
	}
	return Message{}, false
}

// Push appends a message to a thread.
func (m *Messages) Push(threadID string, msg Message) {
	m.mu.Lock()
	m.byThread[threadID] = append(m.byThread[threadID], msg)
	m.mu.Unlock()
	m.router.Emit(MessagesChange{ThreadID: threadID})
}

// SetForThread replaces a thread's messages.
func (m *Messages) SetForThread(threadID string, list []Message) {
	m.mu.Lock()
	m.byThread[threadID] = slices.Clone(list)
	m.mu.Unlock()
	m.router.Emit(MessagesChange{ThreadID: threadID})
}

// UpdateByID patches a message. Unknown ids are ignored.
func (m *Messages) UpdateByID(threadID, id string, p MessagePatch) {
	m.mu.Lock()
	list := slices.Clone(m.byThread[threadID])
	for i := range list {
		if list[i].ID == id {
			p.apply(&list[i])
		}
	}
	m.byThread[threadID] = list
	m.mu.Unlock()
	m.router.Emit(MessagesChange{ThreadID: threadID})
}

// RemoveByID deletes a message. Unknown ids are ignored.
func (m *Messages) RemoveByID(threadID, id string) {
	m.mu.Lock()
	m.byThread[threadID] = slices.DeleteFunc(slices.Clone(m.byThread[threadID]), func(msg Message) bool {
		return msg.ID == id
	})
	m.mu.Unlock()
	m.router.Emit(MessagesChange{ThreadID: threadID})
}

// Subscribe returns a channel of message changes.
func (m *Messages) Subscribe() <-chan MessagesChange {
	return m.router.Subscribe()
}

// Model is an advisory model the chat can be pointed at.
type Model string

const (
	ModelGeneral    Model = "general"
	ModelCumulative Model = "cumulative"
	ModelAccounting Model = "accounting"
)

// AllModels lists the selectable models in display order.
var AllModels = []Model{ModelGeneral, ModelCumulative, ModelAccounting}

// ParseModel returns the model with the given name.
func ParseModel(s string) (Model, bool) {
	for _, m := range AllModels {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Models holds the active model selection.
type Models struct {
	mu     sync.RWMutex
	active Model
	router *Router[Model]
}

// NewModels creates a selection starting at the general model.
func NewModels() *Models {
	return &Models{active: ModelGeneral, router: NewRouter[Model](0)}
}

// Active returns the selected model.
func (m *Models) Active() Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// SetActive selects a model. Unknown models are ignored.
func (m *Models) SetActive(model Model) bool {
	if _, ok := ParseModel(string(model)); !ok {
		return false
	}
	m.mu.Lock()
	m.active = model
	m.mu.Unlock()
	m.router.Emit(model)
	return true
}

// Next cycles to the following model.
func (m *Models) Next() Model {
	m.mu.Lock()
	i := slices.Index(AllModels, m.active)
	m.active = AllModels[(i+1)%len(AllModels)]
	next := m.active
	m.mu.Unlock()
	m.router.Emit(next)
	return next
}

// Subscribe returns a channel of model selections.
func (m *Models) Subscribe() <-chan Model {
	return m.router.Subscribe()
}
