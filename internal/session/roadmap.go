package session

import (
	"log/slog"
	"sync"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
	"github.com/npratt/finroad/internal/progress"
	"github.com/npratt/finroad/internal/suggest"
)

// ChangeKind says what changed in a roadmap.
type ChangeKind int

const (
	JourneyReplaced ChangeKind = iota
	ProgressChanged
	PositionChanged
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case JourneyReplaced:
		return "journey_replaced"
	case ProgressChanged:
		return "progress_changed"
	case PositionChanged:
		return "position_changed"
	default:
		return "unknown"
	}
}

// RoadmapChange is published after every roadmap mutation.
type RoadmapChange struct {
	Kind    ChangeKind
	NodeID  string // empty for JourneyReplaced
	Journey *journey.Journey
}

// Roadmap is the single source of truth for the journey being viewed. It
// works on a private deep copy of the input and replaces the whole journey
// on every change, so a snapshot returned by Journey is never modified.
type Roadmap struct {
	mu         sync.RWMutex
	journey    *journey.Journey
	layout     *layout.Layout
	suggestion suggest.Suggestion

	engine *progress.Engine
	logger *slog.Logger
	router *Router[RoadmapChange]
}

// RoadmapOption configures a Roadmap.
type RoadmapOption func(*Roadmap)

// WithEngine sets the progress engine.
func WithEngine(e *progress.Engine) RoadmapOption {
	return func(r *Roadmap) {
		r.engine = e
	}
}

// WithLogger sets the logger for structural diagnostics.
func WithLogger(l *slog.Logger) RoadmapOption {
	return func(r *Roadmap) {
		r.logger = l
	}
}

// NewRoadmap creates a roadmap over a copy of j and runs the unlock pass.
func NewRoadmap(j *journey.Journey, opts ...RoadmapOption) *Roadmap {
	r := &Roadmap{
		engine: progress.New(),
		logger: slog.Default(),
		router: NewRouter[RoadmapChange](0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.load(j)
	return r
}

func (r *Roadmap) load(j *journey.Journey) {
	if j == nil {
		j = &journey.Journey{}
	}
	next := progress.UnlockPass(j)
	for _, cycle := range layout.FindCycles(next.Nodes) {
		r.logger.Warn("dependency cycle", "journey", next.ID, "nodes", cycle)
	}
	r.set(next)
}

// set swaps in a new journey and derives layout and suggestion. Caller holds
// the write lock or has exclusive access.
func (r *Roadmap) set(j *journey.Journey) {
	r.journey = j
	r.layout = layout.Resolve(j.Nodes)
	for _, e := range r.layout.Cut {
		r.logger.Debug("dependency edge cut for layout", "from", e.From, "to", e.To)
	}
	r.suggestion = suggest.Build(j)
}

// Journey returns the current journey. Callers must treat it as read-only.
func (r *Roadmap) Journey() *journey.Journey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.journey
}

// Layout returns the resolved layout of the current journey.
func (r *Roadmap) Layout() *layout.Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.layout
}

// Suggestion returns the next best step for the current journey.
func (r *Roadmap) Suggestion() suggest.Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suggestion
}

// Apply runs a progress action. It reports whether the journey changed;
// actions on unknown nodes are ignored.
func (r *Roadmap) Apply(a progress.Action) bool {
	r.mu.Lock()
	next := r.engine.ApplyAction(r.journey, a)
	if next == r.journey {
		r.mu.Unlock()
		return false
	}
	r.set(next)
	r.mu.Unlock()

	r.router.Emit(RoadmapChange{Kind: ProgressChanged, NodeID: a.NodeID, Journey: next})
	return true
}

// SetPercent sets a node's percent from the manual slider.
func (r *Roadmap) SetPercent(id string, percent float64) bool {
	r.mu.Lock()
	next := r.engine.ApplyPercent(r.journey, id, percent)
	if next == r.journey {
		r.mu.Unlock()
		return false
	}
	r.set(next)
	r.mu.Unlock()

	r.router.Emit(RoadmapChange{Kind: ProgressChanged, NodeID: id, Journey: next})
	return true
}

// SetNodePosition moves a user-placed node. Nodes without an explicit
// position belong to the layout and are left alone.
func (r *Roadmap) SetNodePosition(id string, p journey.Point) {
	r.mu.Lock()
	n := r.journey.Node(id)
	if n == nil || !n.Draggable() || *n.Position == p {
		r.mu.Unlock()
		return
	}
	next := r.journey.Clone()
	*next.Node(id).Position = p
	r.set(next)
	r.mu.Unlock()

	r.router.Emit(RoadmapChange{Kind: PositionChanged, NodeID: id, Journey: next})
}

// Replace loads a new journey, typically after the document changed on disk.
func (r *Roadmap) Replace(j *journey.Journey) {
	r.mu.Lock()
	r.load(j)
	next := r.journey
	r.mu.Unlock()

	r.router.Emit(RoadmapChange{Kind: JourneyReplaced, Journey: next})
}

// Subscribe returns a channel of roadmap changes.
func (r *Roadmap) Subscribe() <-chan RoadmapChange {
	return r.router.Subscribe()
}

// Unsubscribe removes a subscription.
func (r *Roadmap) Unsubscribe(ch <-chan RoadmapChange) {
	r.router.Unsubscribe(ch)
}

// Close closes all subscriptions.
func (r *Roadmap) Close() {
	r.router.Close()
}
