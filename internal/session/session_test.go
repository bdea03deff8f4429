package session

import (
	"strings"
	"testing"
	"time"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/progress"
	"github.com/npratt/finroad/internal/testutil"
)

func loadSample(t *testing.T) *journey.Journey {
	t.Helper()
	j, err := journey.Decode(strings.NewReader(testutil.SampleJourneyJSON), journey.FormatJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return j
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected change: %+v", v)
	default:
	}
}

func TestRouter_FanOut(t *testing.T) {
	r := NewRouter[int](0)
	a := r.Subscribe()
	b := r.Subscribe()

	r.Emit(7)

	if got := receive(t, a); got != 7 {
		t.Errorf("a got %d, want 7", got)
	}
	if got := receive(t, b); got != 7 {
		t.Errorf("b got %d, want 7", got)
	}
}

func TestRouter_UnsubscribeClosesChannel(t *testing.T) {
	r := NewRouter[int](0)
	ch := r.Subscribe()
	r.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}

	r.Emit(1)
	r.Unsubscribe(ch)
}

func TestRouter_DropsWhenFull(t *testing.T) {
	r := NewRouter[int](1)
	ch := r.Subscribe()

	r.Emit(1)
	r.Emit(2)

	if got := receive(t, ch); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	expectNone(t, ch)
}

func TestRouter_Close(t *testing.T) {
	r := NewRouter[string](0)
	ch := r.Subscribe()

	r.Close()
	r.Close()
	r.Emit("ignored")

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}
	late := r.Subscribe()
	if _, ok := <-late; ok {
		t.Error("Subscribe after Close returned an open channel")
	}
}

func TestNewRoadmap_CopiesInput(t *testing.T) {
	j := loadSample(t)
	r := NewRoadmap(j)

	j.Nodes[0].Title = "mutated"

	if got := r.Journey().Node("budget").Title; got == "mutated" {
		t.Error("roadmap shares nodes with its input")
	}
}

func TestNewRoadmap_NilJourney(t *testing.T) {
	r := NewRoadmap(nil)

	if r.Journey() == nil {
		t.Fatal("Journey() = nil")
	}
	if got := r.Suggestion().ChosenNodeID; got != "" {
		t.Errorf("ChosenNodeID = %q, want empty", got)
	}
}

func TestRoadmap_DerivedState(t *testing.T) {
	r := NewRoadmap(loadSample(t))

	if got := r.Suggestion().ChosenNodeID; got != "emergency" {
		t.Errorf("ChosenNodeID = %q, want emergency", got)
	}
	if got := r.Layout().Levels["mortgage"]; got != 3 {
		t.Errorf("mortgage level = %d, want 3", got)
	}
}

func TestRoadmap_SetPercentPublishes(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()
	before := r.Journey()

	if !r.SetPercent("emergency", 100) {
		t.Fatal("SetPercent reported no change")
	}

	change := receive(t, ch)
	if change.Kind != ProgressChanged {
		t.Errorf("Kind = %v, want %v", change.Kind, ProgressChanged)
	}
	if change.NodeID != "emergency" {
		t.Errorf("NodeID = %q, want emergency", change.NodeID)
	}
	if change.Journey != r.Journey() {
		t.Error("change does not carry the current journey")
	}
	if got := before.Node("emergency").Status; got == journey.StatusCompleted {
		t.Error("earlier snapshot was modified")
	}
	if got := r.Journey().Node("emergency").Status; got != journey.StatusCompleted {
		t.Errorf("emergency status = %q, want completed", got)
	}
	if got := r.Suggestion().ChosenNodeID; got == "emergency" {
		t.Error("suggestion not recomputed after completion")
	}
}

func TestRoadmap_ApplyUnknownNode(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()

	if r.Apply(progress.Action{NodeID: "nope"}) {
		t.Error("Apply on unknown node reported a change")
	}
	expectNone(t, ch)
}

func TestRoadmap_ApplySubnode(t *testing.T) {
	r := NewRoadmap(loadSample(t))

	if !r.Apply(progress.Action{NodeID: "credit", SubnodeID: "credit.autopay"}) {
		t.Fatal("Apply reported no change")
	}

	credit := r.Journey().Node("credit")
	for _, s := range credit.Subnodes {
		if s.ID == "credit.autopay" && s.Status != journey.StatusCompleted {
			t.Errorf("autopay status = %q, want completed", s.Status)
		}
	}
}

func TestRoadmap_SetNodePosition(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()

	r.SetNodePosition("budget", journey.Point{X: 10, Y: 20})

	change := receive(t, ch)
	if change.Kind != PositionChanged {
		t.Errorf("Kind = %v, want %v", change.Kind, PositionChanged)
	}
	if got := *r.Journey().Node("budget").Position; got != (journey.Point{X: 10, Y: 20}) {
		t.Errorf("position = %+v, want {10 20}", got)
	}
	if got, _ := r.Layout().Position("budget"); got != (journey.Point{X: 10, Y: 20}) {
		t.Errorf("layout position = %+v, want {10 20}", got)
	}
}

func TestRoadmap_SetNodePositionIgnoresAutoNodes(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()

	r.SetNodePosition("emergency", journey.Point{X: 1, Y: 1})
	r.SetNodePosition("missing", journey.Point{X: 1, Y: 1})

	expectNone(t, ch)
	if r.Journey().Node("emergency").Position != nil {
		t.Error("auto-positioned node gained a position")
	}
}

func TestRoadmap_Replace(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()

	next, err := journey.Decode(strings.NewReader(testutil.SampleJourneyYAML), journey.FormatYAML)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	r.Replace(next)

	change := receive(t, ch)
	if change.Kind != JourneyReplaced {
		t.Errorf("Kind = %v, want %v", change.Kind, JourneyReplaced)
	}
	if got := r.Journey().ID; got != "cushion" {
		t.Errorf("journey id = %q, want cushion", got)
	}
}

func TestRoadmap_CloseEndsSubscriptions(t *testing.T) {
	r := NewRoadmap(loadSample(t))
	ch := r.Subscribe()
	r.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}
}

func TestChangeKind_String(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{JourneyReplaced, "journey_replaced"},
		{ProgressChanged, "progress_changed"},
		{PositionChanged, "position_changed"},
		{ChangeKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestThreads(t *testing.T) {
	th := NewThreads(Thread{ID: "t1", Title: "New chat"})
	ch := th.Subscribe()

	if got := th.ActiveID(); got != "t1" {
		t.Errorf("ActiveID = %q, want t1", got)
	}

	th.Add(Thread{ID: "t2", Title: "Budget"})
	receive(t, ch)
	if list := th.List(); len(list) != 2 || list[0].ID != "t2" {
		t.Errorf("List = %+v, want t2 first", list)
	}

	th.SetActive("t2")
	if got := receive(t, ch).ActiveID; got != "t2" {
		t.Errorf("change ActiveID = %q, want t2", got)
	}

	last := "hello"
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	th.UpdateMeta("t1", ThreadPatch{LastMessage: &last, UpdatedAt: &at})
	receive(t, ch)

	got, ok := th.Get("t1")
	if !ok {
		t.Fatal("t1 missing")
	}
	if got.LastMessage != "hello" || !got.UpdatedAt.Equal(at) {
		t.Errorf("t1 = %+v, want last message and time set", got)
	}
	if got.Title != "New chat" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
}

func TestMessages(t *testing.T) {
	m := NewMessages()
	ch := m.Subscribe()

	m.Push("t1", Message{ID: "a", Role: RoleUser, Text: "hi", Pending: true})
	m.Push("t1", Message{ID: "b", Role: RoleAssistant, Text: "typing…", Typing: true})
	m.Push("t2", Message{ID: "c", Role: RoleUser, Text: "other"})
	for range 3 {
		receive(t, ch)
	}

	pending := false
	failed := "network"
	m.UpdateByID("t1", "a", MessagePatch{Pending: &pending, Error: &failed})
	if got := receive(t, ch).ThreadID; got != "t1" {
		t.Errorf("change ThreadID = %q, want t1", got)
	}

	a, _ := m.Get("t1", "a")
	if a.Pending || !a.Failed() || a.Text != "hi" {
		t.Errorf("a = %+v, want not pending, failed, text kept", a)
	}

	m.RemoveByID("t1", "b")
	receive(t, ch)
	if list := m.List("t1"); len(list) != 1 || list[0].ID != "a" {
		t.Errorf("List(t1) = %+v, want only a", list)
	}
	if list := m.List("t2"); len(list) != 1 {
		t.Errorf("List(t2) has %d messages, want 1", len(list))
	}

	m.SetForThread("t1", nil)
	receive(t, ch)
	if list := m.List("t1"); len(list) != 0 {
		t.Errorf("List(t1) = %+v, want empty", list)
	}
}

func TestMessages_ListIsACopy(t *testing.T) {
	m := NewMessages()
	m.Push("t1", Message{ID: "a", Text: "hi"})

	list := m.List("t1")
	list[0].Text = "changed"

	if got, _ := m.Get("t1", "a"); got.Text != "hi" {
		t.Errorf("Text = %q, want hi", got.Text)
	}
}

func TestModels(t *testing.T) {
	m := NewModels()
	ch := m.Subscribe()

	if got := m.Active(); got != ModelGeneral {
		t.Errorf("Active = %q, want general", got)
	}
	if m.SetActive("nope") {
		t.Error("SetActive accepted an unknown model")
	}
	expectNone(t, ch)

	if !m.SetActive(ModelAccounting) {
		t.Fatal("SetActive rejected accounting")
	}
	if got := receive(t, ch); got != ModelAccounting {
		t.Errorf("change = %q, want accounting", got)
	}
	if got := m.Next(); got != ModelGeneral {
		t.Errorf("Next = %q, want general", got)
	}
}
