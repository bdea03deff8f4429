// Package progress applies user actions to a journey: subnode completion,
// numeric progress increments, manual percent edits, dependency-driven
// unlocking and the aggregate journey percent.
//
// Every operation is copy-on-write. The input journey is never modified; a
// changed journey is returned as a new value, and an operation that names an
// unknown node or carries a NaN percent returns the input pointer unchanged.
// Non-finite amounts are ignored.
package progress

import (
	"math"
	"time"

	"github.com/npratt/finroad/internal/journey"
)

// Action is a user action on a node: complete a subnode, add an amount to the
// node's numeric progress, or both.
type Action struct {
	NodeID    string
	SubnodeID string   // optional
	Amount    *float64 // optional, in target units
}

// Engine applies actions and stamps the aggregate progress with its clock.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for last_updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StatusFromProgress derives a node's status from its progress: completed
// at 100 percent or more, otherwise the existing status (unlocked when unset).
func StatusFromProgress(n *journey.Node) journey.Status {
	if n.Percent() >= 100 {
		return journey.StatusCompleted
	}
	if n.Status == "" {
		return journey.StatusUnlocked
	}
	return n.Status
}

// CanUnlock reports whether every dependency of n exists and is completed.
func CanUnlock(n *journey.Node, index map[string]*journey.Node) bool {
	for _, dep := range n.Dependencies {
		d := index[dep]
		if d == nil || d.Status != journey.StatusCompleted {
			return false
		}
	}
	return true
}

// CompleteBySubnodes marks a node without a progress object completed once it
// has subnodes and all of them are completed. It reports whether it did.
func CompleteBySubnodes(n *journey.Node) bool {
	if n.Progress != nil || len(n.Subnodes) == 0 {
		return false
	}
	for _, s := range n.Subnodes {
		if s.Status != journey.StatusCompleted {
			return false
		}
	}
	n.Status = journey.StatusCompleted
	return true
}

// UnlockPass returns a copy of j with dependency unlocking applied to every
// node in document order, followed by lock enforcement.
func UnlockPass(j *journey.Journey) *journey.Journey {
	next := j.Clone()
	unlockPass(next)
	return next
}

// ApplyAction completes the named subnode, increments numeric progress by the
// amount, derives the node status, then re-runs unlocking and the aggregate.
func (e *Engine) ApplyAction(j *journey.Journey, a Action) *journey.Journey {
	if j.Node(a.NodeID) == nil {
		return j
	}
	next := j.Clone()
	n := next.Node(a.NodeID)

	if a.SubnodeID != "" {
		for i := range n.Subnodes {
			if n.Subnodes[i].ID == a.SubnodeID {
				n.Subnodes[i].Status = journey.StatusCompleted
			}
		}
	}

	if n.Progress.HasNumeric() && a.Amount != nil && journey.Finite(*a.Amount) {
		p := n.Progress
		target := *p.TargetValue
		current := journey.Clamp(*p.CurrentValue+*a.Amount, 0, max(0, target))
		p.CurrentValue = journey.Float(current)
		if target > 0 {
			p.Percent = journey.Float(journey.Clamp(journey.Round(current/target*100), 0, 100))
		}
	}

	CompleteBySubnodes(n)
	n.Status = StatusFromProgress(n)

	unlockPass(next)
	e.recalc(next)
	return next
}

// ApplyPercent sets a node's percent from a manual slider, clamped to
// [0, 100], and back-computes its current value from the target (100 when
// unset). The unlock pass and aggregate run as for ApplyAction. A NaN percent
// is ignored.
func (e *Engine) ApplyPercent(j *journey.Journey, nodeID string, percent float64) *journey.Journey {
	if j.Node(nodeID) == nil || math.IsNaN(percent) {
		return j
	}
	next := j.Clone()
	n := next.Node(nodeID)

	if n.Progress == nil {
		n.Progress = &journey.Progress{
			TargetValue:  journey.Float(100),
			CurrentValue: journey.Float(0),
			Percent:      journey.Float(0),
		}
	}
	target := 100.0
	if t := n.Progress.TargetValue; t != nil && *t > 0 && journey.Finite(*t) {
		target = *t
	}
	p := journey.Clamp(journey.Round(percent), 0, 100)
	n.Progress.Percent = journey.Float(p)
	n.Progress.CurrentValue = journey.Float(journey.Round(p / 100 * target))

	n.Status = StatusFromProgress(n)
	CompleteBySubnodes(n)

	unlockPass(next)
	e.recalc(next)
	return next
}

// RecalcOverall returns a copy of j with the aggregate percent recomputed.
func (e *Engine) RecalcOverall(j *journey.Journey) *journey.Journey {
	next := j.Clone()
	e.recalc(next)
	return next
}

// OverallPercent is the rounded mean of the clamped percent over nodes that
// carry an explicit percent, or 0 when none do.
func OverallPercent(nodes []journey.Node) float64 {
	var sum float64
	var count int
	for _, n := range nodes {
		if n.Progress == nil || n.Progress.Percent == nil {
			continue
		}
		sum += journey.Clamp(*n.Progress.Percent, 0, 100)
		count++
	}
	if count == 0 {
		return 0
	}
	return journey.Round(sum / float64(count))
}

func (e *Engine) recalc(j *journey.Journey) {
	if j.Progress == nil {
		j.Progress = &journey.JourneyProgress{}
	}
	j.Progress.OverallPercent = journey.Float(OverallPercent(j.Nodes))
	j.Progress.LastUpdated = e.now().UTC().Format(time.RFC3339)
}

// unlockPass mutates j in place. Progress values are clamped on the way.
func unlockPass(j *journey.Journey) {
	index := j.Index()
	for i := range j.Nodes {
		n := &j.Nodes[i]
		clampProgress(n)
		if n.Status.OrLocked() == journey.StatusLocked && CanUnlock(n, index) {
			if n.Percent() > 0 {
				n.Status = journey.StatusInProgress
			} else {
				n.Status = journey.StatusUnlocked
			}
		}
		if n.Percent() >= 100 {
			n.Status = journey.StatusCompleted
		}
		CompleteBySubnodes(n)
	}
	enforceLocks(j, index)
}

// enforceLocks re-locks every node whose dependencies are not all completed.
// Re-locking can invalidate dependents, so it repeats until nothing changes.
func enforceLocks(j *journey.Journey, index map[string]*journey.Node) {
	for changed := true; changed; {
		changed = false
		for i := range j.Nodes {
			n := &j.Nodes[i]
			if n.Status == journey.StatusLocked || n.Status == "" {
				continue
			}
			if !CanUnlock(n, index) {
				n.Status = journey.StatusLocked
				changed = true
			}
		}
	}
}

// clampProgress also repairs values a document can carry but no mutation
// produces: a non-finite target is dropped and a NaN current becomes 0.
func clampProgress(n *journey.Node) {
	p := n.Progress
	if p == nil {
		return
	}
	if p.TargetValue != nil && !journey.Finite(*p.TargetValue) {
		p.TargetValue = nil
	}
	if p.CurrentValue != nil && math.IsNaN(*p.CurrentValue) {
		p.CurrentValue = journey.Float(0)
	}
	if p.Percent != nil {
		p.Percent = journey.Float(journey.Clamp(*p.Percent, 0, 100))
	}
	if p.CurrentValue != nil && p.TargetValue != nil && *p.TargetValue >= 0 {
		p.CurrentValue = journey.Float(journey.Clamp(*p.CurrentValue, 0, *p.TargetValue))
	}
}
